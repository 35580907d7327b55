package beatsync

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// epsilon keeps the normalization denominators away from zero on constant
// beat columns.
const epsilon = 1e-8

// MinMaxColumns rescales each beat column of a channels × beats table to
// [0, 1) using the column's minimum and maximum across channels. Used for the
// chroma and bass-chroma modalities.
func MinMaxColumns(table [][]float64) [][]float64 {
	channels, beats := tableShape(table)
	if channels == 0 || beats == 0 {
		return nil
	}

	normalized := newTable(channels, beats)
	column := make([]float64, channels)

	for j := 0; j < beats; j++ {
		for ch := range table {
			column[ch] = table[ch][j]
		}
		lo, hi := floats.Min(column), floats.Max(column)
		scale := hi - lo + epsilon

		for ch := range table {
			normalized[ch][j] = (table[ch][j] - lo) / scale
		}
	}
	return normalized
}

// StandardizeColumns centers each beat column of a channels × beats table to
// zero mean and scales it by the column's population standard deviation
// across channels. Used for the semitone spectrum modality.
func StandardizeColumns(table [][]float64) [][]float64 {
	channels, beats := tableShape(table)
	if channels == 0 || beats == 0 {
		return nil
	}

	normalized := newTable(channels, beats)
	column := make([]float64, channels)

	for j := 0; j < beats; j++ {
		for ch := range table {
			column[ch] = table[ch][j]
		}
		mean := stat.Mean(column, nil)
		std := stat.PopStdDev(column, nil) + epsilon

		for ch := range table {
			normalized[ch][j] = (table[ch][j] - mean) / std
		}
	}
	return normalized
}

func tableShape(table [][]float64) (channels, beats int) {
	if len(table) == 0 {
		return 0, 0
	}
	return len(table), len(table[0])
}

func newTable(channels, beats int) [][]float64 {
	table := make([][]float64, channels)
	for ch := range table {
		table[ch] = make([]float64, beats)
	}
	return table
}
