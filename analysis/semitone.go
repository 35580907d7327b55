package analysis

import "math"

const (
	// SemitoneBins is the height of the log-frequency spectrum: 7 octaves of
	// 12 semitones.
	SemitoneBins = 84

	// ChromaBins is the height of the folded chroma features.
	ChromaBins = 12

	// baseFrequency anchors bin 0 of the semitone spectrum at A0. Every
	// feature matrix therefore has an A origin, three semitones above the C
	// origin the labels use; the beat alignment stage rolls this out.
	baseFrequency = 27.5
)

// Octave fold ranges, in semitone bins. The bass fold keeps the low register,
// the treble fold the mid and high registers; the two overlap by one octave.
const (
	bassFoldLow   = 0
	bassFoldHigh  = 36
	trebleFoldLow = 24
)

// semitoneBank maps an FFT magnitude frame onto SemitoneBins log-spaced bins.
// Each semitone collects the FFT bins inside its quarter-tone band; bands too
// narrow to contain an FFT bin (the lowest octaves at coarse resolution) fall
// back to linear interpolation at the bin's center frequency.
type semitoneBank struct {
	freqBins int
	binWidth float64 // Hz per FFT bin
	lo       []int   // first FFT bin of each band, inclusive
	hi       []int   // last FFT bin of each band, exclusive
	center   []float64
}

func newSemitoneBank(windowSize, sampleRate int) *semitoneBank {
	bank := &semitoneBank{
		freqBins: windowSize/2 + 1,
		binWidth: float64(sampleRate) / float64(windowSize),
		lo:       make([]int, SemitoneBins),
		hi:       make([]int, SemitoneBins),
		center:   make([]float64, SemitoneBins),
	}

	quarterTone := math.Pow(2, 1.0/24.0)
	for b := range SemitoneBins {
		center := baseFrequency * math.Pow(2, float64(b)/12.0)
		bank.center[b] = center

		lo := int(math.Ceil(center / quarterTone / bank.binWidth))
		hi := int(math.Floor(center*quarterTone/bank.binWidth)) + 1
		if lo < 0 {
			lo = 0
		}
		if hi > bank.freqBins {
			hi = bank.freqBins
		}
		bank.lo[b], bank.hi[b] = lo, hi
	}
	return bank
}

// apply collapses one FFT magnitude frame into its semitone bins.
func (sb *semitoneBank) apply(magnitude []float64) []float64 {
	out := make([]float64, SemitoneBins)
	for b := range out {
		lo, hi := sb.lo[b], sb.hi[b]
		if lo < hi {
			sum := 0.0
			for i := lo; i < hi; i++ {
				sum += magnitude[i]
			}
			out[b] = sum
			continue
		}
		out[b] = sb.interpolate(magnitude, sb.center[b])
	}
	return out
}

// interpolate reads the magnitude at an arbitrary frequency by linear
// interpolation between the two surrounding FFT bins.
func (sb *semitoneBank) interpolate(magnitude []float64, freq float64) float64 {
	pos := freq / sb.binWidth
	if pos <= 0 {
		return magnitude[0]
	}

	i := int(pos)
	if i >= len(magnitude)-1 {
		return magnitude[len(magnitude)-1]
	}
	frac := pos - float64(i)
	return magnitude[i]*(1-frac) + magnitude[i+1]*frac
}

// foldChroma sums a bins × frames semitone matrix into pitch classes over the
// bin range [low, high). Row p of the result collects every semitone bin
// congruent to p, preserving the spectrum's A origin.
func foldChroma(spectrum [][]float64, low, high int) [][]float64 {
	numFrames := 0
	if len(spectrum) > 0 {
		numFrames = len(spectrum[0])
	}

	chroma := make([][]float64, ChromaBins)
	for p := range chroma {
		chroma[p] = make([]float64, numFrames)
	}
	for b := low; b < high && b < len(spectrum); b++ {
		row := chroma[b%ChromaBins]
		for t, v := range spectrum[b] {
			row[t] += v
		}
	}
	return chroma
}

// normalizeFrameMax scales each frame column of a bins × frames matrix by its
// maximum, leaving all-zero frames untouched.
func normalizeFrameMax(m [][]float64) {
	if len(m) == 0 {
		return
	}
	for t := range m[0] {
		peak := 0.0
		for b := range m {
			if m[b][t] > peak {
				peak = m[b][t]
			}
		}
		if peak <= 0 {
			continue
		}
		for b := range m {
			m[b][t] /= peak
		}
	}
}
