// SPDX-License-Identifier: MIT
// Package record collects analysis frames and writes them out as a
// structured JSON export. It is a thin sink; the engine knows nothing
// about it.
package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"musicviz/internal/analysis"
)

// Settings controls whether frames are captured.
type Settings struct {
	Enabled bool
}

// Export is the serialised shape of a recording session.
type Export struct {
	Summary analysis.AnalysisSummary `json:"summary"`
	Frames  []analysis.AnalysisFrame `json:"frames"`
}

// Recorder accumulates frames while enabled. Safe for concurrent use so the
// capture loop and a shutdown exporter can share it.
type Recorder struct {
	mu       sync.Mutex
	settings Settings
	frames   []analysis.AnalysisFrame
}

// NewRecorder creates a recorder with the given settings.
func NewRecorder(settings Settings) *Recorder {
	return &Recorder{settings: settings}
}

// Settings returns the recorder's settings.
func (r *Recorder) Settings() Settings {
	return r.settings
}

// RecordFrame stores frame when recording is enabled; otherwise it is a
// no-op, so callers can record unconditionally.
func (r *Recorder) RecordFrame(frame analysis.AnalysisFrame) {
	if !r.settings.Enabled {
		return
	}
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	r.mu.Unlock()
}

// FrameCount returns the number of frames recorded so far.
func (r *Recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// WriteJSON writes the recorded frames and the given summary to w as
// indented JSON.
func (r *Recorder) WriteJSON(w io.Writer, summary analysis.AnalysisSummary) error {
	r.mu.Lock()
	export := Export{
		Summary: summary,
		Frames:  append([]analysis.AnalysisFrame(nil), r.frames...),
	}
	r.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode recording: %w", err)
	}
	return nil
}

// WriteJSONFile writes the export to path, creating or truncating the file.
func (r *Recorder) WriteJSONFile(path string, summary analysis.AnalysisSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}
	defer file.Close()
	return r.WriteJSON(file, summary)
}
