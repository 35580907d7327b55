package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThiagoPoppe/parc/theory"
)

func mustIndex(t *testing.T, tasks *TaskSet, task, literal string) int {
	t.Helper()
	id, err := tasks.Index(task, literal)
	require.NoError(t, err)
	return id
}

func TestEncoder_Encode(t *testing.T) {
	enc := NewEncoder(nil, nil)
	tasks := enc.Tasks()

	rec := validRecord()
	rec.Chords = append(rec.Chords, ChordSpan{Root: 5, Applied: 5, Onset: 4, Offset: 6, Type: 5})

	table, err := enc.Encode(rec)
	require.NoError(t, err)
	require.Len(t, table, len(AllTasks))

	cMajor := mustIndex(t, tasks, TaskLocalKey, "C major")
	qM := mustIndex(t, tasks, TaskQuality, "M")
	qD7 := mustIndex(t, tasks, TaskQuality, "D7")
	rnI := mustIndex(t, tasks, TaskSimpleRN, "I")
	rnV7 := mustIndex(t, tasks, TaskSimpleRN, "V7")
	rnVofV := mustIndex(t, tasks, TaskSimpleRN, "V/V")

	// Beats 0-1 sound I, 2-3 sound V7 in first inversion, 4-5 sound V/V and
	// 6-7 are silent.
	want := [][]int{
		{cMajor, cMajor, cMajor, cMajor, cMajor, cMajor, cMajor, cMajor},
		{-1, -1, -1, -1, 4, 4, -1, -1},
		{0, 0, 4, 4, 4, 4, -1, -1},
		{qM, qM, qD7, qD7, qM, qM, -1, -1},
		{0, 0, 1, 1, 0, 0, -1, -1},
		{0, 0, 7, 7, 2, 2, -1, -1},
		{0, 0, 11, 11, 2, 2, -1, -1},
		{0, 0, 0, 0, 7, 7, -1, -1},
		{rnI, rnI, rnV7, rnV7, rnVofV, rnVofV, -1, -1},
	}
	assert.Equal(t, want, table)
}

func TestEncoder_Encode_PaddingPolicy(t *testing.T) {
	enc := NewEncoder(nil, nil)
	tasks := enc.Tasks()

	rec := validRecord()
	table, err := enc.Encode(rec)
	require.NoError(t, err)

	localKeyRow, ok := tasks.rowOf(TaskLocalKey)
	require.True(t, ok)

	// Beats 4-7 lie outside every chord span: every chord-derived task must
	// hold the sentinel there, while local_key never does.
	for row := range table {
		for beat := 4; beat < 8; beat++ {
			if row == localKeyRow {
				assert.NotEqual(t, LabelPadding, table[row][beat], "local_key beat %d", beat)
			} else {
				assert.Equal(t, LabelPadding, table[row][beat], "task %s beat %d", tasks.Tasks[row], beat)
			}
		}
	}
}

func TestEncoder_Encode_KeyChange(t *testing.T) {
	enc := NewEncoder(nil, nil)
	tasks := enc.Tasks()

	// One chord spanning a key change resolves against each key separately.
	rec := &Record{
		ID:       "tt-0002",
		NumBeats: 8,
		Keys: []KeySpan{
			{Onset: 0, Offset: 4, Scale: "major", Tonic: "C"},
			{Onset: 4, Offset: 8, Scale: "major", Tonic: "G"},
		},
		Chords: []ChordSpan{{Root: 1, Onset: 0, Offset: 8, Type: 5}},
	}

	table, err := enc.Encode(rec)
	require.NoError(t, err)

	cMajor := mustIndex(t, tasks, TaskLocalKey, "C major")
	gMajor := mustIndex(t, tasks, TaskLocalKey, "G major")
	localKeyRow, _ := tasks.rowOf(TaskLocalKey)
	rootRow, _ := tasks.rowOf(TaskRootPitchClass)
	tonicizedRow, _ := tasks.rowOf(TaskTonicizedPitchClass)
	rnRow, _ := tasks.rowOf(TaskSimpleRN)

	assert.Equal(t, []int{cMajor, cMajor, cMajor, cMajor, gMajor, gMajor, gMajor, gMajor}, table[localKeyRow])
	assert.Equal(t, []int{0, 0, 0, 0, 7, 7, 7, 7}, table[rootRow])
	assert.Equal(t, []int{0, 0, 0, 0, 7, 7, 7, 7}, table[tonicizedRow])

	rnI := mustIndex(t, tasks, TaskSimpleRN, "I")
	for beat := 0; beat < 8; beat++ {
		assert.Equal(t, rnI, table[rnRow][beat], "beat %d", beat)
	}
}

func TestEncoder_Encode_BorrowedWithFractionalSpan(t *testing.T) {
	enc := NewEncoder(nil, nil)
	tasks := enc.Tasks()

	rec := &Record{
		ID:       "tt-0003",
		NumBeats: 4,
		Keys:     []KeySpan{{Onset: 0, Offset: 4, Scale: "minor", Tonic: "A"}},
		Chords: []ChordSpan{
			{Root: 3, Onset: 1.5, Offset: 3, Type: 5, Borrowed: Borrowed{Mode: "major"}},
		},
	}

	table, err := enc.Encode(rec)
	require.NoError(t, err)

	aMinor := mustIndex(t, tasks, TaskLocalKey, "A minor")
	qm := mustIndex(t, tasks, TaskQuality, "m")
	rn := mustIndex(t, tasks, TaskSimpleRN, "#iii")

	// Only beat 2 falls inside [1.5, 3).
	want := [][]int{
		{aMinor, aMinor, aMinor, aMinor},
		{-1, -1, -1, -1},
		{-1, -1, 2, -1},
		{-1, -1, qm, -1},
		{-1, -1, 0, -1},
		{-1, -1, 1, -1},
		{-1, -1, 1, -1},
		{-1, -1, 9, -1},
		{-1, -1, rn, -1},
	}
	assert.Equal(t, want, table)
}

func TestEncoder_Encode_ReducedTasks(t *testing.T) {
	enc := NewEncoder(nil, ReducedTaskSet())
	tasks := enc.Tasks()

	rec := validRecord()
	table, err := enc.Encode(rec)
	require.NoError(t, err)
	require.Len(t, table, len(ReducedTasks))

	cMajor := mustIndex(t, tasks, TaskLocalKey, "C major")
	rnI := mustIndex(t, tasks, TaskSimpleRN, "I")
	rnV7 := mustIndex(t, tasks, TaskSimpleRN, "V7")

	want := [][]int{
		{cMajor, cMajor, cMajor, cMajor, cMajor, cMajor, cMajor, cMajor},
		{rnI, rnI, rnV7, rnV7, -1, -1, -1, -1},
		{0, 0, 1, 1, -1, -1, -1, -1},
		{0, 0, 7, 7, -1, -1, -1, -1},
		{0, 0, 11, 11, -1, -1, -1, -1},
		{0, 0, 0, 0, -1, -1, -1, -1},
	}
	assert.Equal(t, want, table)
}

func TestEncoder_Encode_Idempotent(t *testing.T) {
	enc := NewEncoder(nil, nil)
	rec := validRecord()
	rec.Chords = append(rec.Chords, ChordSpan{Root: 6, Applied: 5, Onset: 5, Offset: 7.5, Type: 7, Inversion: 2})

	first, err := enc.Encode(rec)
	require.NoError(t, err)
	second, err := enc.Encode(rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncoder_Encode_Errors(t *testing.T) {
	enc := NewEncoder(nil, nil)

	invalid := validRecord()
	invalid.NumBeats = 0
	_, err := enc.Encode(invalid)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	ninth := validRecord()
	ninth.Chords[0].Type = 9
	_, err = enc.Encode(ninth)
	assert.ErrorIs(t, err, theory.ErrUnknownExtension)
	assert.Contains(t, err.Error(), "tt-0001")

	inverted := validRecord()
	inverted.Chords[0].Inversion = 3
	_, err = enc.Encode(inverted)
	assert.ErrorIs(t, err, ErrUnknownLabelValue)

	badMode := validRecord()
	badMode.Keys[0].Scale = "melodicMinor"
	_, err = enc.Encode(badMode)
	assert.ErrorIs(t, err, theory.ErrUnknownMode)
}

func TestEncoder_Encode_TokenOutsideVocabulary(t *testing.T) {
	// A truncated simple_rn domain turns a legal token into a fatal encoding
	// error instead of a clipped or defaulted label.
	domains := defaultDomains()
	domains[TaskSimpleRN] = []string{"I"}
	enc := NewEncoder(nil, newTaskSet(AllTasks, domains))

	_, err := enc.Encode(validRecord())
	assert.ErrorIs(t, err, ErrUnknownLabelValue)
	assert.Contains(t, err.Error(), "V7")
}
