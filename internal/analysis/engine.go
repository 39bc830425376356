// SPDX-License-Identifier: MIT
/*
Package analysis implements the streaming audio analysis engine.

The engine consumes blocks of mono float samples in stream order and
produces one AnalysisFrame per block: loudness (RMS), spectral shape
(centroid, band energies, flux), onset confidence, and a running tempo
estimate. Per-block work is bounded by the block length and the transform
plan is cached across same-sized blocks, so the engine is usable from a
real-time capture callback.

Thread Safety:
- Engine itself is single-goroutine; wrap it in SharedEngine to share it
  between a producer and readers.
- All buffers are reused between blocks; a steady stream of same-sized
  blocks does not allocate.
*/
package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Engine maintains the frame history, onset history and running summary of
// one audio stream. The zero value is not usable; construct with NewEngine.
type Engine struct {
	sampleRate       int
	processedSamples uint64

	spectral *spectralAnalyzer
	onsets   onsetDetector

	frames  []AnalysisFrame
	summary AnalysisSummary
}

// NewEngine creates an engine for a stream at the given sample rate.
func NewEngine(sampleRate int) *Engine {
	return &Engine{
		sampleRate: sampleRate,
		spectral:   newSpectralAnalyzer(sampleRate),
		summary:    AnalysisSummary{SampleRate: sampleRate},
	}
}

// SampleRate returns the sample rate fixed at construction.
func (e *Engine) SampleRate() int { return e.sampleRate }

// FrameCount returns the number of frames analysed since creation or Reset.
func (e *Engine) FrameCount() int { return len(e.frames) }

// ProcessBlock analyses one block of mono samples and appends the resulting
// frame to the history. Blocks shorter than 2 samples fail with
// ErrInvalidInput before any state changes; a transform failure drops the
// block but leaves prior frames valid.
func (e *Engine) ProcessBlock(samples []float64) (AnalysisFrame, error) {
	if len(samples) < 2 {
		return AnalysisFrame{}, fmt.Errorf("%w: got %d", ErrInvalidInput, len(samples))
	}

	feat, err := e.spectral.analyze(samples)
	if err != nil {
		return AnalysisFrame{}, err
	}

	// Block timing comes from the processed-sample counter, not wall clock,
	// so frame times are strictly non-decreasing.
	rate := float64(e.sampleRate)
	start := float64(e.processedSamples) / rate
	end := float64(e.processedSamples+uint64(len(samples))) / rate
	mid := (start + end) / 2

	rms := blockRMS(samples)
	confidence := e.onsets.confidence(rms)
	if e.onsets.register(mid, confidence) {
		if bpm, ok := e.onsets.tempoBPM(); ok {
			if e.summary.TempoBPM == nil {
				e.summary.TempoBPM = new(float64)
			}
			*e.summary.TempoBPM = bpm
		}
	}

	frame := AnalysisFrame{
		Time:             mid,
		RMS:              rms,
		SpectralCentroid: feat.centroid,
		BeatConfidence:   confidence,
		LowBandEnergy:    feat.lowBand,
		HighBandEnergy:   feat.highBand,
		SpectralFlux:     feat.flux,
	}

	e.frames = append(e.frames, frame)
	e.processedSamples += uint64(len(samples))
	if e.summary.DurationSeconds == nil || end > *e.summary.DurationSeconds {
		e.summary.DurationSeconds = &end
	}
	return frame, nil
}

// SampleAt returns the frame covering time t. An exact midpoint match wins;
// otherwise the latest frame before t is returned. When the history is
// empty or t precedes every frame, a zero-valued frame stamped with t is
// returned, so callers driving a clock ahead of the analysis never see an
// error.
func (e *Engine) SampleAt(t float64) AnalysisFrame {
	idx := sort.Search(len(e.frames), func(i int) bool {
		return e.frames[i].Time > t
	})
	if idx == 0 {
		return AnalysisFrame{Time: t}
	}
	return e.frames[idx-1]
}

// LatestFrame returns the most recently analysed frame, if any.
func (e *Engine) LatestFrame() (AnalysisFrame, bool) {
	if len(e.frames) == 0 {
		return AnalysisFrame{}, false
	}
	return e.frames[len(e.frames)-1], true
}

// Summary returns a snapshot of the running stream summary.
func (e *Engine) Summary() AnalysisSummary {
	return e.summary.clone()
}

// Reset returns the engine to its fresh state: history, onset history,
// summary and sample counter are cleared while the sample rate and the
// cached transform plan are kept, so the next stream avoids re-planning.
func (e *Engine) Reset() {
	e.processedSamples = 0
	e.frames = e.frames[:0]
	e.onsets.reset()
	e.spectral.resetHistory()
	e.summary = AnalysisSummary{SampleRate: e.sampleRate}
}

// blockRMS is the root-mean-square amplitude of the raw, unwindowed block.
func blockRMS(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
