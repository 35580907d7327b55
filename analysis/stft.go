package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// stftResult holds the magnitude spectrogram of a mono signal as a
// frames × bins matrix of positive-frequency magnitudes.
type stftResult struct {
	magnitude [][]float64
	numFrames int
	freqBins  int
}

// hannWindow returns periodic Hann coefficients, the window used for every
// analysis frame.
func hannWindow(size int) []float64 {
	coefficients := make([]float64, size)
	for i := range coefficients {
		coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return coefficients
}

// computeSTFT slides a Hann window over the signal at the configured hop and
// computes the magnitude spectrum of each frame across a worker pool. Signals
// shorter than one window are zero-padded to a single frame.
func computeSTFT(signal []float64, windowSize, hopSize int) (*stftResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("window size %d and hop size %d must be positive", windowSize, hopSize)
	}

	if len(signal) < windowSize {
		padded := make([]float64, windowSize)
		copy(padded, signal)
		signal = padded
	}

	numFrames := (len(signal)-windowSize)/hopSize + 1
	freqBins := windowSize/2 + 1
	window := hannWindow(windowSize)

	magnitude := make([][]float64, numFrames)
	for i := range magnitude {
		magnitude[i] = make([]float64, freqBins)
	}

	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for range workerCount(numFrames) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			frame := make([]float64, windowSize)
			for frameIdx := range jobs {
				start := frameIdx * hopSize
				copy(frame, signal[start:start+windowSize])
				for i := range frame {
					frame[i] *= window[i]
				}

				spectrum := fft.FFTReal(frame)
				for i := range freqBins {
					magnitude[frameIdx][i] = cmplx.Abs(spectrum[i])
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	return &stftResult{
		magnitude: magnitude,
		numFrames: numFrames,
		freqBins:  freqBins,
	}, nil
}

// workerCount sizes the pool to the workload so short clips do not pay for
// goroutines they cannot feed.
func workerCount(numFrames int) int {
	numCPU := runtime.NumCPU()
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}
	if numFrames < 1000 {
		return min(numCPU, 8)
	}
	return numCPU
}
