package segment

import "fmt"

// Default windowing parameters. Each training example spans 256 beats and
// consecutive examples start 32 beats apart.
const (
	DefaultWidth  = 256
	DefaultStride = 32
)

// Count returns the number of windows produced for a table of length tLen
// after tail padding: tables shorter than one window are padded up to width
// and always yield one window; the remainder beyond the last full window is
// dropped.
func Count(tLen, width, stride int) int {
	if tLen < width {
		return 1
	}
	return (tLen-width)/stride + 1
}

// Slide cuts a channels × T table into overlapping windows of the given
// width at the given stride along the time axis. When T < width the table is
// right-padded with pad up to width first, so at least one window is always
// produced. Windows are returned in increasing start-offset order; the window
// index is the join key between sibling label and feature tables, which must
// therefore be sliced with identical T, width and stride.
func Slide[T any](table [][]T, width, stride int, pad T) ([][][]T, error) {
	if width <= 0 || stride <= 0 {
		return nil, fmt.Errorf("window width %d and stride %d must be positive", width, stride)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("cannot window an empty table")
	}

	tLen := len(table[0])
	for ch, row := range table {
		if len(row) != tLen {
			return nil, fmt.Errorf("ragged table: channel %d has %d columns, want %d", ch, len(row), tLen)
		}
	}
	if tLen == 0 {
		return nil, fmt.Errorf("cannot window a table with no columns")
	}

	if tLen < width {
		padded := make([][]T, len(table))
		for ch, row := range table {
			padded[ch] = make([]T, width)
			copy(padded[ch], row)
			for i := tLen; i < width; i++ {
				padded[ch][i] = pad
			}
		}
		table = padded
		tLen = width
	}

	count := (tLen-width)/stride + 1
	windows := make([][][]T, count)
	for w := 0; w < count; w++ {
		start := w * stride
		window := make([][]T, len(table))
		for ch, row := range table {
			window[ch] = make([]T, width)
			copy(window[ch], row[start:start+width])
		}
		windows[w] = window
	}

	return windows, nil
}
