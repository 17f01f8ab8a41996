// Package analysis post-processes recorded probe series.
package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum computes the single-sided amplitude spectrum of a uniformly
// sampled series. sampleEvery is the sampling period of the probe that
// produced it. Returns matching frequency and amplitude slices of
// length n/2.
func Spectrum(series []float64, sampleEvery float64) (freqs, amps []float64) {
	n := len(series)
	if n < 2 || sampleEvery <= 0 {
		return nil, nil
	}

	coeffs := fft.FFTReal(series)
	half := n / 2
	freqs = make([]float64, half)
	amps = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * sampleEvery)
		amps[i] = 2 * cmplx.Abs(coeffs[i]) / float64(n)
	}
	if half > 0 {
		amps[0] /= 2
	}
	return freqs, amps
}

// Dominant returns the frequency with the largest amplitude, skipping
// the DC bin.
func Dominant(freqs, amps []float64) float64 {
	best, bestAmp := 0.0, 0.0
	for i := 1; i < len(amps); i++ {
		if amps[i] > bestAmp {
			best, bestAmp = freqs[i], amps[i]
		}
	}
	return best
}
