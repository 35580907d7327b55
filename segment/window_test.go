package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTable(channels, tLen int) [][]int {
	table := make([][]int, channels)
	for ch := range table {
		table[ch] = make([]int, tLen)
		for i := range table[ch] {
			table[ch][i] = ch*1000 + i
		}
	}
	return table
}

func TestSlide_ShortTableIsPadded(t *testing.T) {
	table := makeTable(3, 40)

	windows, err := Slide(table, DefaultWidth, DefaultStride, -1)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	window := windows[0]
	require.Len(t, window, 3)
	require.Len(t, window[0], DefaultWidth)

	// Original values survive, the tail is sentinel-padded.
	assert.Equal(t, 0, window[0][0])
	assert.Equal(t, 39, window[0][39])
	assert.Equal(t, 2039, window[2][39])
	for i := 40; i < DefaultWidth; i++ {
		assert.Equal(t, -1, window[0][i])
	}
}

func TestSlide_WindowCounts(t *testing.T) {
	tests := []struct {
		name   string
		tLen   int
		count  int
		starts []int
	}{
		{name: "shorter than window", tLen: 40, count: 1, starts: []int{0}},
		{name: "exactly one window", tLen: 256, count: 1, starts: []int{0}},
		{name: "tail remainder dropped", tLen: 300, count: 2, starts: []int{0, 32}},
		{name: "one stride past window", tLen: 288, count: 2, starts: []int{0, 32}},
		{name: "several strides", tLen: 256 + 5*32, count: 6, starts: []int{0, 32, 64, 96, 128, 160}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := makeTable(2, tt.tLen)
			windows, err := Slide(table, DefaultWidth, DefaultStride, 0)
			require.NoError(t, err)
			require.Len(t, windows, tt.count)
			assert.Equal(t, tt.count, Count(tt.tLen, DefaultWidth, DefaultStride))

			for w, start := range tt.starts {
				assert.Equal(t, start, windows[w][0][0], "window %d", w)
				assert.Equal(t, start+DefaultWidth-1, windows[w][0][DefaultWidth-1], "window %d", w)
			}
		})
	}
}

func TestSlide_FloatTableUsesZeroPadding(t *testing.T) {
	table := [][]float64{{0.5, 0.25}, {1.0, 2.0}}

	windows, err := Slide(table, 4, 2, 0.0)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, []float64{0.5, 0.25, 0, 0}, windows[0][0])
	assert.Equal(t, []float64{1.0, 2.0, 0, 0}, windows[0][1])
}

func TestSlide_WindowsAreCopies(t *testing.T) {
	table := makeTable(1, 300)

	windows, err := Slide(table, DefaultWidth, DefaultStride, 0)
	require.NoError(t, err)

	windows[0][0][0] = -999
	assert.Equal(t, 0, table[0][0], "mutating a window must not touch the source table")
	assert.Equal(t, 32, windows[1][0][0])
}

func TestSlide_InvalidInputs(t *testing.T) {
	table := makeTable(2, 10)

	_, err := Slide(table, 0, 32, 0)
	assert.Error(t, err)

	_, err = Slide(table, 256, 0, 0)
	assert.Error(t, err)

	_, err = Slide([][]int{}, 256, 32, 0)
	assert.Error(t, err)

	_, err = Slide([][]int{{1, 2}, {1}}, 256, 32, 0)
	assert.Error(t, err)

	_, err = Slide([][]int{{}, {}}, 256, 32, 0)
	assert.Error(t, err)
}
