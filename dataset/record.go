package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Record is the canonical symbolic annotation for one entity: a beat count
// plus key, chord, tempo and meter timelines expressed as half-open beat
// spans. Records are produced by an external normalization stage and consumed
// read-only here.
type Record struct {
	// ID is the entity identifier. It is not part of the serialized record;
	// LoadDataset stamps it from the corpus map key.
	ID string `json:"-"`

	NumBeats int          `json:"num_beats"`
	Youtube  *YoutubeInfo `json:"youtube,omitempty"`
	Notes    []NoteSpan   `json:"notes,omitempty"`
	Chords   []ChordSpan  `json:"chords"`
	Keys     []KeySpan    `json:"keys"`
	Tempos   []TempoSpan  `json:"tempos,omitempty"`
	Meters   []MeterSpan  `json:"meters,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
}

// YoutubeInfo locates the audio clip backing an entity: a video id and the
// second offsets that bracket the annotated section.
type YoutubeInfo struct {
	ID        string  `json:"id"`
	StartSync float64 `json:"start_sync"`
	EndSync   float64 `json:"end_sync"`
}

// NoteSpan is one melody note: a scale degree, an octave and a beat span.
// Notes are carried through the record but take no part in label encoding.
type NoteSpan struct {
	ScaleDegree string  `json:"sd"`
	Octave      int     `json:"octave"`
	Onset       float64 `json:"onset"`
	Offset      float64 `json:"offset"`
}

// ChordSpan is one harmonic annotation. Root and Applied are 1-based scale
// degrees; for an applied chord (Applied != 0) Root names the tonicized
// target degree and Applied names the chord's own numeral, matching the
// upstream corpus convention. Type is the stack extent (5 triad, 7 seventh,
// 9 and 11 unsupported downstream). The decoration lists (adds, omits,
// alterations, suspensions, substitutions) are preserved but ignored by the
// encoder.
type ChordSpan struct {
	Root          int      `json:"root"`
	Onset         float64  `json:"onset"`
	Offset        float64  `json:"offset"`
	Type          int      `json:"type"`
	Inversion     int      `json:"inversion"`
	Applied       int      `json:"applied"`
	Adds          []int    `json:"adds"`
	Omits         []int    `json:"omits"`
	Alterations   []string `json:"alterations"`
	Suspensions   []int    `json:"suspensions"`
	Substitutions []string `json:"substitutions"`
	Borrowed      Borrowed `json:"borrowed"`
}

// KeySpan is one key annotation: a tonic note name, a mode name and the beat
// span it governs. Key spans are total and contiguous over [0, num_beats).
type KeySpan struct {
	Onset  float64 `json:"onset"`
	Offset float64 `json:"offset"`
	Scale  string  `json:"scale"`
	Tonic  string  `json:"tonic"`
}

// TempoSpan is one tempo annotation.
type TempoSpan struct {
	Onset       float64 `json:"onset"`
	Offset      float64 `json:"offset"`
	BPM         float64 `json:"bpm"`
	SwingFactor float64 `json:"swing_factor"`
	SwingBeat   float64 `json:"swing_beat"`
}

// MeterSpan is one meter annotation.
type MeterSpan struct {
	Onset          float64 `json:"onset"`
	Offset         float64 `json:"offset"`
	BeatsInMeasure int     `json:"beats_in_measure"`
	BeatUnit       int     `json:"beat_unit"`
}

// Borrowed carries the borrowed-scale annotation of a chord: empty, a mode
// name, or a 7-element semitone template relative to the key tonic. The JSON
// form is null, a string, or an array of 7 integers.
type Borrowed struct {
	Mode     string
	Template []int
}

// IsZero reports whether no borrowed scale is set.
func (b Borrowed) IsZero() bool {
	return b.Mode == "" && len(b.Template) == 0
}

// UnmarshalJSON accepts the three wire forms of a borrowed annotation.
func (b *Borrowed) UnmarshalJSON(data []byte) error {
	*b = Borrowed{}
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &b.Mode)
	case '[':
		var template []int
		if err := json.Unmarshal(data, &template); err != nil {
			return err
		}
		if len(template) != 7 {
			return fmt.Errorf("borrowed scale template has %d entries, want 7", len(template))
		}
		b.Template = template
		return nil
	}
	return fmt.Errorf("borrowed scale must be null, a mode name or a 7-element template")
}

// MarshalJSON writes the annotation back in its original wire form.
func (b Borrowed) MarshalJSON() ([]byte, error) {
	switch {
	case len(b.Template) > 0:
		return json.Marshal(b.Template)
	case b.Mode != "":
		return json.Marshal(b.Mode)
	}
	return []byte("null"), nil
}

// LoadDataset reads a JSON corpus mapping entity ids to records and stamps
// each record with its id.
func LoadDataset(path string) (map[string]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records map[string]*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	for id, rec := range records {
		rec.ID = id
	}
	return records, nil
}

// Validate checks the structural invariants of the record: a positive beat
// count, a total and contiguous key timeline, total tempo and meter timelines
// when present, and ordered, non-overlapping, in-range chord spans. Field
// values outside their documented ranges fail here rather than surfacing as
// resolution errors later.
func (r *Record) Validate() error {
	if r.NumBeats <= 0 {
		return fmt.Errorf("%w: entity %s has num_beats %d", ErrInvalidRecord, r.ID, r.NumBeats)
	}
	total := float64(r.NumBeats)

	if err := r.validateTimeline("keys", keySpans(r.Keys), total); err != nil {
		return err
	}
	if len(r.Tempos) > 0 {
		if err := r.validateTimeline("tempos", tempoSpans(r.Tempos), total); err != nil {
			return err
		}
	}
	if len(r.Meters) > 0 {
		if err := r.validateTimeline("meters", meterSpans(r.Meters), total); err != nil {
			return err
		}
	}

	for i, key := range r.Keys {
		if key.Tonic == "" {
			return fmt.Errorf("%w: entity %s key %d has no tonic", ErrInvalidRecord, r.ID, i)
		}
		if key.Scale == "" {
			return fmt.Errorf("%w: entity %s key %d has no scale", ErrInvalidRecord, r.ID, i)
		}
	}

	prevOffset := 0.0
	for i, chord := range r.Chords {
		if chord.Onset < 0 || chord.Offset > total || chord.Onset >= chord.Offset {
			return fmt.Errorf("%w: entity %s chord %d spans [%g, %g) outside [0, %d)",
				ErrInvalidRecord, r.ID, i, chord.Onset, chord.Offset, r.NumBeats)
		}
		if chord.Onset < prevOffset {
			return fmt.Errorf("%w: entity %s chord %d overlaps its predecessor", ErrInvalidRecord, r.ID, i)
		}
		prevOffset = chord.Offset

		if chord.Root < 1 || chord.Root > 7 {
			return fmt.Errorf("%w: entity %s chord %d has root %d", ErrInvalidRecord, r.ID, i, chord.Root)
		}
		if chord.Applied < 0 || chord.Applied > 7 {
			return fmt.Errorf("%w: entity %s chord %d has applied %d", ErrInvalidRecord, r.ID, i, chord.Applied)
		}
		switch chord.Type {
		case 5, 7, 9, 11:
		default:
			return fmt.Errorf("%w: entity %s chord %d has type %d", ErrInvalidRecord, r.ID, i, chord.Type)
		}
		if chord.Inversion < 0 || chord.Inversion > 3 {
			return fmt.Errorf("%w: entity %s chord %d has inversion %d", ErrInvalidRecord, r.ID, i, chord.Inversion)
		}
	}

	return nil
}

type span struct {
	onset  float64
	offset float64
}

func keySpans(keys []KeySpan) []span {
	spans := make([]span, len(keys))
	for i, k := range keys {
		spans[i] = span{k.Onset, k.Offset}
	}
	return spans
}

func tempoSpans(tempos []TempoSpan) []span {
	spans := make([]span, len(tempos))
	for i, t := range tempos {
		spans[i] = span{t.Onset, t.Offset}
	}
	return spans
}

func meterSpans(meters []MeterSpan) []span {
	spans := make([]span, len(meters))
	for i, m := range meters {
		spans[i] = span{m.Onset, m.Offset}
	}
	return spans
}

// validateTimeline enforces totality: spans start at 0, chain without gaps or
// overlaps, and end exactly at the beat count.
func (r *Record) validateTimeline(field string, spans []span, total float64) error {
	if len(spans) == 0 {
		return fmt.Errorf("%w: entity %s has no %s", ErrInvalidRecord, r.ID, field)
	}
	if spans[0].onset != 0 {
		return fmt.Errorf("%w: entity %s %s start at beat %g, want 0", ErrInvalidRecord, r.ID, field, spans[0].onset)
	}
	for i, s := range spans {
		if s.onset >= s.offset {
			return fmt.Errorf("%w: entity %s %s span %d is empty", ErrInvalidRecord, r.ID, field, i)
		}
		if i > 0 && s.onset != spans[i-1].offset {
			return fmt.Errorf("%w: entity %s %s span %d does not touch its predecessor", ErrInvalidRecord, r.ID, field, i)
		}
	}
	if last := spans[len(spans)-1].offset; last != total {
		return fmt.Errorf("%w: entity %s %s end at beat %g, want %g", ErrInvalidRecord, r.ID, field, last, total)
	}
	return nil
}

// Corpus tags computed from a record's content. The batch driver filters
// entities by tag before encoding.
const (
	TagHasAudio       = "HAS_AUDIO"
	TagHasHarmony     = "HAS_HARMONY"
	TagHasMelody      = "HAS_MELODY"
	TagHasKeyChange   = "HAS_KEY_CHANGE"
	TagHasMeterChange = "HAS_METER_CHANGE"
	TagHasTempoChange = "HAS_TEMPO_CHANGE"
	TagHasSwingTempo  = "HAS_SWING_TEMPO"
	TagOnlyCommonTime = "ONLY_COMMON_TIME"
	TagOnlyMajMinKeys = "ONLY_MAJMIN_KEYS"
)

// ComputeTags derives the content tags for the record. HasAudio is supplied
// by the caller since audio presence is known only to the audio store.
func (r *Record) ComputeTags(hasAudio bool) []string {
	var tags []string
	if hasAudio {
		tags = append(tags, TagHasAudio)
	}
	if len(r.Chords) > 0 {
		tags = append(tags, TagHasHarmony)
	}
	if len(r.Notes) > 0 {
		tags = append(tags, TagHasMelody)
	}
	if len(r.Keys) > 1 {
		tags = append(tags, TagHasKeyChange)
	}
	if len(r.Meters) > 1 {
		tags = append(tags, TagHasMeterChange)
	}
	if len(r.Tempos) > 1 {
		tags = append(tags, TagHasTempoChange)
	}

	for _, tempo := range r.Tempos {
		if tempo.SwingFactor != 0 {
			tags = append(tags, TagHasSwingTempo)
			break
		}
	}

	commonTime := true
	for _, meter := range r.Meters {
		if meter.BeatsInMeasure != 4 || meter.BeatUnit != 1 {
			commonTime = false
			break
		}
	}
	if commonTime {
		tags = append(tags, TagOnlyCommonTime)
	}

	majMin := true
	for _, key := range r.Keys {
		if key.Scale != "major" && key.Scale != "minor" {
			majMin = false
			break
		}
	}
	if majMin {
		tags = append(tags, TagOnlyMajMinKeys)
	}

	return tags
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
