// SPDX-License-Identifier: MIT
/*
Package audio ties the analysis engine to its inputs: a live PortAudio
capture stream or a decoded-file source driven by the CLI. The engine does
the numerical work; this package is routing.
*/
package audio

import (
	"fmt"

	"musicviz/internal/analysis"
)

// Mode selects where the audio stream comes from.
type Mode int

const (
	// ModeLive analyses blocks as a capture device delivers them.
	ModeLive Mode = iota
	// ModePrecomputed analyses blocks decoded from a file.
	ModePrecomputed
)

// String returns the mode name for logs and errors.
func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModePrecomputed:
		return "precomputed"
	default:
		return "unknown"
	}
}

// AudioEngine couples one analysis engine to an operating mode. The wrong
// entry point for the mode is rejected so a file driver and a capture
// callback can never interleave blocks on the same stream.
type AudioEngine struct {
	mode     Mode
	analysis *analysis.SharedEngine
}

// NewAudioEngine creates an engine analysing a stream at sampleRate.
func NewAudioEngine(mode Mode, sampleRate int) *AudioEngine {
	return &AudioEngine{
		mode:     mode,
		analysis: analysis.NewSharedEngine(analysis.NewEngine(sampleRate)),
	}
}

// Mode returns the configured operating mode.
func (e *AudioEngine) Mode() Mode { return e.mode }

// Analysis exposes the shared engine for transports and publishers.
func (e *AudioEngine) Analysis() *analysis.SharedEngine { return e.analysis }

// ProcessLiveBlock analyses one captured block. Only valid in live mode.
func (e *AudioEngine) ProcessLiveBlock(samples []float64) (analysis.AnalysisFrame, error) {
	if e.mode != ModeLive {
		return analysis.AnalysisFrame{}, fmt.Errorf("cannot process live block in %s mode", e.mode)
	}
	return e.analysis.ProcessBlock(samples)
}

// ProcessSourceBlock analyses one decoded block. Only valid in precomputed
// mode.
func (e *AudioEngine) ProcessSourceBlock(samples []float64) (analysis.AnalysisFrame, error) {
	if e.mode != ModePrecomputed {
		return analysis.AnalysisFrame{}, fmt.Errorf("cannot process source block in %s mode", e.mode)
	}
	return e.analysis.ProcessBlock(samples)
}

// Handle returns a read-only view for systems that only inspect the
// analysis state (rendering, mapping).
func (e *AudioEngine) Handle() AnalysisHandle {
	return AnalysisHandle{engine: e.analysis}
}

// AnalysisHandle is the read-only facade over a shared analysis engine.
type AnalysisHandle struct {
	engine *analysis.SharedEngine
}

// Summary returns the running stream summary.
func (h AnalysisHandle) Summary() (analysis.AnalysisSummary, error) {
	return h.engine.Summary()
}

// LatestFrame returns the most recent frame, if any.
func (h AnalysisHandle) LatestFrame() (analysis.AnalysisFrame, bool, error) {
	return h.engine.LatestFrame()
}

// SampleAt returns the frame covering time t.
func (h AnalysisHandle) SampleAt(t float64) (analysis.AnalysisFrame, error) {
	return h.engine.SampleAt(t)
}
