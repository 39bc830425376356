// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// Band split points for the low/high energy fractions.
	lowBandMaxHz  = 200.0
	highBandMinHz = 2000.0

	// Magnitude totals at or below this are treated as silence.
	magnitudeEpsilon = 1e-6
)

// spectralFeatures is the frequency-domain slice of an AnalysisFrame.
type spectralFeatures struct {
	centroid float64
	lowBand  float64
	highBand float64
	flux     float64
}

// spectralAnalyzer owns the forward real FFT plan and all scratch buffers.
// Everything is sized to the current block length and rebuilt only when that
// length changes, so a steady stream of same-sized blocks never replans or
// allocates.
type spectralAnalyzer struct {
	sampleRate float64

	size      int
	fft       *fourier.FFT
	input     []float64
	coeffs    []complex128
	magnitude []float64
	hann      []float64

	// prevMagnitude holds the previous block's spectrum for flux. hasPrev is
	// false on the first block after construction, Reset, or a size change.
	prevMagnitude []float64
	hasPrev       bool
}

func newSpectralAnalyzer(sampleRate int) *spectralAnalyzer {
	return &spectralAnalyzer{sampleRate: float64(sampleRate)}
}

// ensure rebuilds the FFT plan and scratch buffers for block length n.
// A cache hit (same n as the previous call) costs a single comparison.
func (a *spectralAnalyzer) ensure(n int) error {
	if n < 2 {
		return fmt.Errorf("%w: transform size %d", ErrInvalidInput, n)
	}
	if n == a.size {
		return nil
	}

	bins := n/2 + 1
	a.fft = fourier.NewFFT(n)
	a.input = make([]float64, n)
	a.coeffs = make([]complex128, bins)
	a.magnitude = make([]float64, bins)

	a.hann = make([]float64, n)
	for i := range a.hann {
		a.hann[i] = 1.0
	}
	window.Hann(a.hann)

	// The old spectrum no longer lines up bin for bin, so flux history
	// restarts: the next block reports zero flux.
	a.prevMagnitude = make([]float64, bins)
	a.hasPrev = false
	a.size = n
	return nil
}

// analyze windows the block, transforms it, and derives the frequency-domain
// features. The previous-magnitude buffer is overwritten on success so the
// following block always has valid flux history.
func (a *spectralAnalyzer) analyze(samples []float64) (feat spectralFeatures, err error) {
	if err = a.ensure(len(samples)); err != nil {
		return spectralFeatures{}, err
	}

	for i, s := range samples {
		a.input[i] = s * a.hann[i]
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransform, r)
		}
	}()
	a.fft.Coefficients(a.coeffs, a.input)

	var total, weighted, low, high float64
	for i, c := range a.coeffs {
		m := cmplx.Abs(c)
		a.magnitude[i] = m
		total += m

		freq := a.fft.Freq(i) * a.sampleRate
		weighted += freq * m
		if freq <= lowBandMaxHz {
			low += m
		}
		if freq >= highBandMinHz {
			high += m
		}
	}

	if total > magnitudeEpsilon {
		if nyquist := a.sampleRate / 2; nyquist > 0 {
			feat.centroid = clamp01(weighted / total / nyquist)
		}
		feat.lowBand = clamp01(low / total)
		feat.highBand = clamp01(high / total)

		if a.hasPrev {
			var rise float64
			for i, m := range a.magnitude {
				if d := m - a.prevMagnitude[i]; d > 0 {
					rise += d
				}
			}
			feat.flux = clamp01(rise / total)
		}
	}

	copy(a.prevMagnitude, a.magnitude)
	a.hasPrev = true
	return feat, nil
}

// resetHistory clears the flux history while keeping the cached plan and
// buffers, so the stream after a Reset avoids re-planning.
func (a *spectralAnalyzer) resetHistory() {
	for i := range a.prevMagnitude {
		a.prevMagnitude[i] = 0
	}
	a.hasPrev = false
}
