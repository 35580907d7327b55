package beatsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollRows(t *testing.T) {
	m := [][]float64{{0}, {1}, {2}, {3}, {4}}

	rolled := RollRows(m, -3)
	assert.Equal(t, [][]float64{{3}, {4}, {0}, {1}, {2}}, rolled)

	// Rolling back by the same amount restores the original order.
	assert.Equal(t, m, RollRows(rolled, 3))
}

func TestRollRows_SemitoneShift(t *testing.T) {
	// Twelve rows labelled by their source bin: after the A-to-C roll,
	// row 0 must hold what used to live in row 3.
	m := make([][]float64, 12)
	for i := range m {
		m[i] = []float64{float64(i), float64(i) * 10}
	}

	rolled := RollRows(m, SemitoneShift)
	for i := 0; i < 12; i++ {
		src := (i + 3) % 12
		assert.Equal(t, m[src], rolled[i], "row %d", i)
	}
}

func TestRollRows_ZeroShiftCopies(t *testing.T) {
	m := [][]float64{{1, 2}, {3, 4}}
	rolled := RollRows(m, 0)
	assert.Equal(t, m, rolled)

	rolled[0][0] = 99
	assert.Equal(t, 1.0, m[0][0])
}

func TestResampleToBeats(t *testing.T) {
	frames := [][]float64{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{8, 7, 6, 5, 4, 3, 2, 1},
	}

	beats, err := ResampleToBeats(frames, []int{0, 2, 4, 6, 8})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{
		{1.5, 3.5, 5.5, 7.5},
		{7.5, 5.5, 3.5, 1.5},
	}, beats)
}

func TestResampleToBeats_DegenerateSpans(t *testing.T) {
	frames := [][]float64{{10, 20, 30}}

	// Five beats over three frames: spans [0,0), [0,1), [1,1), [1,2), [2,3)
	// where empty spans fall back to the frame at the boundary.
	bounds, err := NewAligner(nil).BoundaryFrames(5, 3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 1, 1, 2, 3}, bounds)

	beats, err := ResampleToBeats(frames, bounds)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{10, 10, 20, 20, 30}}, beats)
}

func TestResampleToBeats_TrailingEmptySpan(t *testing.T) {
	frames := [][]float64{{10, 20}}

	// An empty span at the very end clamps to the last frame.
	beats, err := ResampleToBeats(frames, []int{0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{15, 20}}, beats)
}

func TestResampleToBeats_Invalid(t *testing.T) {
	_, err := ResampleToBeats(nil, []int{0, 1})
	assert.ErrorIs(t, err, ErrAlignmentDegenerate)

	_, err = ResampleToBeats([][]float64{{1, 2}}, []int{0})
	assert.ErrorIs(t, err, ErrAlignmentDegenerate)

	_, err = ResampleToBeats([][]float64{{1, 2}, {3}}, []int{0, 2})
	assert.Error(t, err)

	_, err = ResampleToBeats([][]float64{{1, 2}}, []int{0, 3})
	assert.Error(t, err)
}
