package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSine(freq float64, sampleRate, numSamples int) []float64 {
	signal := make([]float64, numSamples)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return signal
}

func TestHannWindow(t *testing.T) {
	window := hannWindow(8)
	require.Len(t, window, 8)

	assert.InDelta(t, 0.0, window[0], 1e-12)
	assert.InDelta(t, 1.0, window[4], 1e-12)
	assert.InDelta(t, window[1], window[7], 1e-12)

	for i, v := range window {
		assert.GreaterOrEqual(t, v, 0.0, "coefficient %d", i)
		assert.LessOrEqual(t, v, 1.0, "coefficient %d", i)
	}
}

func TestComputeSTFT_FrameCount(t *testing.T) {
	tests := []struct {
		name       string
		numSamples int
		windowSize int
		hopSize    int
		wantFrames int
	}{
		{
			name:       "one second at analysis defaults",
			numSamples: 44100,
			windowSize: 16384,
			hopSize:    2048,
			wantFrames: 14,
		},
		{
			name:       "exactly one window",
			numSamples: 16384,
			windowSize: 16384,
			hopSize:    2048,
			wantFrames: 1,
		},
		{
			name:       "one window plus one hop",
			numSamples: 18432,
			windowSize: 16384,
			hopSize:    2048,
			wantFrames: 2,
		},
		{
			name:       "shorter than a window pads to one frame",
			numSamples: 1000,
			windowSize: 16384,
			hopSize:    2048,
			wantFrames: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := makeSine(440.0, 44100, tt.numSamples)

			result, err := computeSTFT(signal, tt.windowSize, tt.hopSize)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFrames, result.numFrames)
			assert.Len(t, result.magnitude, tt.wantFrames)
			assert.Equal(t, tt.windowSize/2+1, result.freqBins)
			assert.Len(t, result.magnitude[0], result.freqBins)
		})
	}
}

func TestComputeSTFT_PeakBin(t *testing.T) {
	// A sinusoid placed exactly on an FFT bin center concentrates its
	// energy there.
	sampleRate := 44100
	windowSize := 4096
	bin := 32
	freq := float64(bin) * float64(sampleRate) / float64(windowSize)
	signal := makeSine(freq, sampleRate, windowSize)

	result, err := computeSTFT(signal, windowSize, 1024)
	require.NoError(t, err)
	require.Equal(t, 1, result.numFrames)

	peak := 0
	for i, v := range result.magnitude[0] {
		if v > result.magnitude[0][peak] {
			peak = i
		}
		assert.False(t, math.IsNaN(v), "bin %d", i)
	}
	assert.Equal(t, bin, peak)
}

func TestComputeSTFT_Errors(t *testing.T) {
	tests := []struct {
		name       string
		signal     []float64
		windowSize int
		hopSize    int
	}{
		{name: "empty signal", signal: nil, windowSize: 256, hopSize: 64},
		{name: "zero window", signal: make([]float64, 512), windowSize: 0, hopSize: 64},
		{name: "zero hop", signal: make([]float64, 512), windowSize: 256, hopSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computeSTFT(tt.signal, tt.windowSize, tt.hopSize)
			assert.Error(t, err)
		})
	}
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(1))
	assert.GreaterOrEqual(t, workerCount(50), 1)
	assert.LessOrEqual(t, workerCount(500), 8)
	assert.GreaterOrEqual(t, workerCount(5000), 1)
}
