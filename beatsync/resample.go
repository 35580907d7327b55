package beatsync

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// SemitoneShift is the circular row correction applied to every raw frame
// matrix before alignment. The upstream extractor emits its semitone and
// chroma bins with an A origin, three semitones above the C origin the label
// side uses.
const SemitoneShift = -3

// RollRows circularly shifts the rows of a channels × frames matrix: the
// input row at index (i - shift) mod channels lands in output row i, so a
// negative shift moves rows upward. The input is not modified.
func RollRows(m [][]float64, shift int) [][]float64 {
	channels := len(m)
	if channels == 0 {
		return nil
	}

	rolled := make([][]float64, channels)
	for i := range rolled {
		src := ((i-shift)%channels + channels) % channels
		row := make([]float64, len(m[src]))
		copy(row, m[src])
		rolled[i] = row
	}
	return rolled
}

// ResampleToBeats pools a channels × numFrames matrix into one column per
// beat. Beat i covers the half-open frame range [bounds[i], bounds[i+1]) and
// takes the arithmetic mean of those frames per channel. A degenerate range
// (equal boundaries, which can occur near the tail) takes the single frame at
// min(bounds[i], numFrames-1) instead.
func ResampleToBeats(frames [][]float64, bounds []int) ([][]float64, error) {
	numBeats := len(bounds) - 1
	if numBeats <= 0 {
		return nil, fmt.Errorf("%w: %d beat boundaries", ErrAlignmentDegenerate, len(bounds))
	}
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil, fmt.Errorf("%w: empty frame matrix", ErrAlignmentDegenerate)
	}

	numFrames := len(frames[0])
	for ch, row := range frames {
		if len(row) != numFrames {
			return nil, fmt.Errorf("ragged frame matrix: channel %d has %d frames, want %d", ch, len(row), numFrames)
		}
	}

	resampled := make([][]float64, len(frames))
	for ch := range resampled {
		resampled[ch] = make([]float64, numBeats)
	}

	for i := 0; i < numBeats; i++ {
		lo, hi := bounds[i], bounds[i+1]
		if lo == hi {
			idx := min(lo, numFrames-1)
			if idx < 0 {
				return nil, fmt.Errorf("beat %d maps to negative frame index %d", i, idx)
			}
			for ch, row := range frames {
				resampled[ch][i] = row[idx]
			}
			continue
		}

		if lo < 0 || hi > numFrames || lo > hi {
			return nil, fmt.Errorf("beat %d maps to invalid frame range [%d, %d) of %d frames", i, lo, hi, numFrames)
		}
		for ch, row := range frames {
			resampled[ch][i] = stat.Mean(row[lo:hi], nil)
		}
	}

	return resampled, nil
}
