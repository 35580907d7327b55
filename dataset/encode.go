package dataset

import (
	"fmt"
	"math"

	"github.com/ThiagoPoppe/parc/theory"
)

// LabelPadding marks beats with no value for a task: beats outside any chord
// span in the chord-derived tasks, and tail padding added by the windower.
const LabelPadding = -1

// Encoder walks a record's beat timeline and emits one integer label row per
// task. Cells hold class ids from the task set's vocabularies; numeric tasks
// (degrees, inversion, pitch classes) use identity domains so the cell value
// is the quantity itself.
type Encoder struct {
	resolver *theory.Resolver
	builder  *TokenBuilder
	tasks    *TaskSet
}

// NewEncoder creates an encoder over the given resolver and task set. Nil
// arguments select the defaults.
func NewEncoder(resolver *theory.Resolver, tasks *TaskSet) *Encoder {
	if resolver == nil {
		resolver = theory.NewResolver(nil)
	}
	if tasks == nil {
		tasks = DefaultTaskSet()
	}
	return &Encoder{
		resolver: resolver,
		builder:  NewTokenBuilder(resolver),
		tasks:    tasks,
	}
}

// Tasks returns the encoder's task set.
func (e *Encoder) Tasks() *TaskSet {
	return e.tasks
}

// Encode produces the task × num_beats label table for a record, rows in
// task-set order. Encoding is deterministic: an unchanged record and task set
// yield an identical table. Any value that cannot be resolved or placed in
// its vocabulary fails the whole record.
func (e *Encoder) Encode(rec *Record) ([][]int, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	table := make([][]int, len(e.tasks.Tasks))
	for i := range table {
		row := make([]int, rec.NumBeats)
		for j := range row {
			row[j] = LabelPadding
		}
		table[i] = row
	}

	setCell := func(task string, beat, value int) {
		if row, ok := e.tasks.rowOf(task); ok {
			table[row][beat] = value
		}
	}

	for i := range rec.Keys {
		key := &rec.Keys[i]
		tonicPc, err := theory.ParseNote(key.Tonic)
		if err != nil {
			return nil, fmt.Errorf("entity %s key %d: %w", rec.ID, i, err)
		}
		if _, err := e.resolver.BuildScale(tonicPc, key.Scale); err != nil {
			return nil, fmt.Errorf("entity %s key %d: %w", rec.ID, i, err)
		}

		if !e.tasks.Has(TaskLocalKey) {
			continue
		}
		id, err := e.tasks.Index(TaskLocalKey, KeyLiteral(tonicPc, key.Scale))
		if err != nil {
			return nil, fmt.Errorf("entity %s key %d: %w", rec.ID, i, err)
		}
		start, end := beatRange(key.Onset, key.Offset, rec.NumBeats)
		for b := start; b < end; b++ {
			setCell(TaskLocalKey, b, id)
		}
	}

	// Chords resolve per overlapping key span, so a chord the upstream
	// normalizer failed to split at a key change still labels each side
	// against its own key.
	for ci := range rec.Chords {
		chord := &rec.Chords[ci]
		for ki := range rec.Keys {
			key := &rec.Keys[ki]
			onset := math.Max(chord.Onset, key.Onset)
			offset := math.Min(chord.Offset, key.Offset)
			if onset >= offset {
				continue
			}

			labels, err := e.chordLabels(chord, key)
			if err != nil {
				return nil, fmt.Errorf("entity %s chord %d: %w", rec.ID, ci, err)
			}

			start, end := beatRange(onset, offset, rec.NumBeats)
			for b := start; b < end; b++ {
				for task, value := range labels {
					setCell(task, b, value)
				}
			}
		}
	}

	return table, nil
}

// chordLabels resolves one chord against one key and returns its value for
// every chord-derived task.
func (e *Encoder) chordLabels(chord *ChordSpan, key *KeySpan) (map[string]int, error) {
	token, err := e.builder.Token(chord, key)
	if err != nil {
		return nil, err
	}

	tonicPc, err := theory.ParseNote(key.Tonic)
	if err != nil {
		return nil, err
	}
	res, err := e.resolver.Resolve(token, tonicPc, key.Scale)
	if err != nil {
		return nil, fmt.Errorf("token %q: %w", token, err)
	}

	if chord.Inversion >= len(res.PitchClasses) {
		return nil, fmt.Errorf("%w: inversion %d on %d-tone chord %q",
			ErrUnknownLabelValue, chord.Inversion, len(res.PitchClasses), token)
	}

	labels := map[string]int{
		TaskPrimaryDegree:   chord.Root - 1,
		TaskSecondaryDegree: LabelPadding,
		TaskInversion:       chord.Inversion,
		TaskRootPitchClass:  res.Root,
		TaskBassPitchClass:  res.PitchClasses[chord.Inversion],
	}
	if chord.Applied != 0 {
		labels[TaskPrimaryDegree] = chord.Applied - 1
		labels[TaskSecondaryDegree] = chord.Root - 1
	}

	switch {
	case res.Secondary != nil:
		labels[TaskTonicizedPitchClass] = res.Secondary.Tonic
	case !chord.Borrowed.IsZero():
		eff, err := e.builder.EffectiveScale(chord, key)
		if err != nil {
			return nil, err
		}
		labels[TaskTonicizedPitchClass] = eff[0]
	default:
		labels[TaskTonicizedPitchClass] = tonicPc
	}

	if e.tasks.Has(TaskQuality) {
		id, err := e.tasks.Index(TaskQuality, res.Quality)
		if err != nil {
			return nil, err
		}
		labels[TaskQuality] = id
	}
	if e.tasks.Has(TaskSimpleRN) {
		id, err := e.tasks.Index(TaskSimpleRN, token)
		if err != nil {
			return nil, err
		}
		labels[TaskSimpleRN] = id
	}

	return labels, nil
}

// beatRange converts a half-open beat span to the integer beats it covers,
// clipped to [0, numBeats).
func beatRange(onset, offset float64, numBeats int) (start, end int) {
	start = int(math.Ceil(onset))
	if start < 0 {
		start = 0
	}
	end = int(math.Ceil(offset))
	if end > numBeats {
		end = numBeats
	}
	return start, end
}
