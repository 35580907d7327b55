// Package analysis extracts frame-level harmonic features from decoded audio:
// an 84-bin log-frequency spectrum plus treble and bass chroma folds, the raw
// material the beat alignment stage averages into beat-synchronous features.
package analysis

import (
	"fmt"
)

// AnalyzerConfig holds the spectral analysis parameters.
type AnalyzerConfig struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`
}

// DefaultAnalyzerConfig returns settings tuned for harmony features: a long
// window for semitone resolution in the bass register and the hop the rest of
// the pipeline assumes when mapping beats to frames.
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		SampleRate: 44100,
		WindowSize: 16384,
		HopSize:    2048,
	}
}

// FrameSet bundles the per-frame features for one audio segment. All matrices
// are bins × frames with bin 0 at pitch class A (spectrum bin 0 = A0).
type FrameSet struct {
	Chroma     [][]float64
	BassChroma [][]float64
	Spectrum   [][]float64
	NumFrames  int
}

// Analyzer computes frame-level harmonic features from mono PCM.
type Analyzer struct {
	config *AnalyzerConfig
	bank   *semitoneBank
}

// NewAnalyzer creates an analyzer with the given config, or defaults if nil.
func NewAnalyzer(config *AnalyzerConfig) (*Analyzer, error) {
	if config == nil {
		config = DefaultAnalyzerConfig()
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", config.SampleRate)
	}
	if config.WindowSize <= 0 || config.WindowSize&(config.WindowSize-1) != 0 {
		return nil, fmt.Errorf("window size must be a positive power of two, got %d", config.WindowSize)
	}
	if config.HopSize <= 0 {
		return nil, fmt.Errorf("invalid hop size: %d", config.HopSize)
	}

	return &Analyzer{
		config: config,
		bank:   newSemitoneBank(config.WindowSize, config.SampleRate),
	}, nil
}

// SampleRate reports the PCM rate the analyzer expects.
func (a *Analyzer) SampleRate() int {
	return a.config.SampleRate
}

// HopSize reports the frame hop in samples.
func (a *Analyzer) HopSize() int {
	return a.config.HopSize
}

// Analyze computes the semitone spectrum and its chroma folds for a mono PCM
// signal. Chroma and bass chroma are normalized per frame by their maximum;
// the spectrum is left unnormalized so the later per-beat scaling sees the
// raw energy.
func (a *Analyzer) Analyze(pcm []float64) (*FrameSet, error) {
	stft, err := computeSTFT(pcm, a.config.WindowSize, a.config.HopSize)
	if err != nil {
		return nil, fmt.Errorf("stft failed: %w", err)
	}

	spectrum := make([][]float64, SemitoneBins)
	for b := range spectrum {
		spectrum[b] = make([]float64, stft.numFrames)
	}
	for t := range stft.numFrames {
		frame := a.bank.apply(stft.magnitude[t])
		for b, v := range frame {
			spectrum[b][t] = v
		}
	}

	chroma := foldChroma(spectrum, trebleFoldLow, SemitoneBins)
	bassChroma := foldChroma(spectrum, bassFoldLow, bassFoldHigh)
	normalizeFrameMax(chroma)
	normalizeFrameMax(bassChroma)

	return &FrameSet{
		Chroma:     chroma,
		BassChroma: bassChroma,
		Spectrum:   spectrum,
		NumFrames:  stft.numFrames,
	}, nil
}
