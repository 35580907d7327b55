package beatsync

import (
	"errors"
	"fmt"
)

// Analysis frame geometry shared with the feature extraction stage. One frame
// covers 2048 samples at 44100 Hz, about 46.44 ms.
const (
	DefaultSampleRate = 44100
	DefaultHopSize    = 2048
)

// FeaturePadding fills feature windows past the clip tail.
const FeaturePadding = 0.0

// ErrAlignmentDegenerate indicates a beat-to-frame alignment request with no
// beats or no frames to align.
var ErrAlignmentDegenerate = errors.New("degenerate beat-to-frame alignment")

// AlignerConfig holds the frame geometry used to map beats onto analysis
// frames.
type AlignerConfig struct {
	SampleRate int `json:"sample_rate"`
	HopSize    int `json:"hop_size"`
}

// DefaultAlignerConfig returns the standard 44100 Hz / 2048-sample geometry.
func DefaultAlignerConfig() *AlignerConfig {
	return &AlignerConfig{
		SampleRate: DefaultSampleRate,
		HopSize:    DefaultHopSize,
	}
}

// Aligner maps integer beat indices onto analysis frame indices. It assumes a
// single affine beat-to-time mapping across the whole clip: beat 0 at time 0
// and beat numBeats at the end of the last frame.
type Aligner struct {
	config *AlignerConfig
}

// NewAligner creates an aligner. A nil config selects DefaultAlignerConfig.
func NewAligner(config *AlignerConfig) *Aligner {
	if config == nil {
		config = DefaultAlignerConfig()
	}
	return &Aligner{config: config}
}

// HopDuration returns the duration of one analysis frame in seconds.
func (a *Aligner) HopDuration() float64 {
	return float64(a.config.HopSize) / float64(a.config.SampleRate)
}

// BoundaryFrames returns numBeats+1 monotonically non-decreasing frame
// indices, one per beat boundary. The boundaries are numBeats+1 evenly spaced
// time points over the clip, each floored to a frame index; with beat i at
// time i/numBeats of the total duration this reduces to
// floor(i*numFrames/numBeats), computed in integers so the boundaries are
// exact. The last boundary equals numFrames and is clamped by the resampler.
func (a *Aligner) BoundaryFrames(numBeats, numFrames int) ([]int, error) {
	if numBeats <= 0 || numFrames <= 0 {
		return nil, fmt.Errorf("%w: num_beats=%d num_frames=%d", ErrAlignmentDegenerate, numBeats, numFrames)
	}

	bounds := make([]int, numBeats+1)
	for i := 0; i <= numBeats; i++ {
		bounds[i] = i * numFrames / numBeats
	}
	return bounds, nil
}
