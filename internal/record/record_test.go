// SPDX-License-Identifier: MIT
package record

import (
	"bytes"
	"encoding/json"
	"testing"

	"musicviz/internal/analysis"
)

func TestDisabledRecorderIgnoresFrames(t *testing.T) {
	r := NewRecorder(Settings{Enabled: false})
	r.RecordFrame(analysis.AnalysisFrame{Time: 1})

	if got := r.FrameCount(); got != 0 {
		t.Errorf("frame count = %d, want 0 while disabled", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	r := NewRecorder(Settings{Enabled: true})
	frames := []analysis.AnalysisFrame{
		{Time: 0.05, RMS: 0.3, BeatConfidence: 1},
		{Time: 0.15, RMS: 0.1, SpectralFlux: 0.2},
	}
	for _, f := range frames {
		r.RecordFrame(f)
	}

	tempo := 120.0
	duration := 0.2
	summary := analysis.AnalysisSummary{
		SampleRate:      48000,
		TempoBPM:        &tempo,
		DurationSeconds: &duration,
	}

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, summary); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var export Export
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if export.Summary.SampleRate != 48000 {
		t.Errorf("sample rate = %d, want 48000", export.Summary.SampleRate)
	}
	if export.Summary.TempoBPM == nil || *export.Summary.TempoBPM != 120 {
		t.Errorf("tempo = %v, want 120", export.Summary.TempoBPM)
	}
	if len(export.Frames) != len(frames) {
		t.Fatalf("frames = %d, want %d", len(export.Frames), len(frames))
	}
	for i, f := range frames {
		if export.Frames[i] != f {
			t.Errorf("frame %d = %+v, want %+v", i, export.Frames[i], f)
		}
	}
}

func TestEmptySummaryOmitsOptionalFields(t *testing.T) {
	r := NewRecorder(Settings{Enabled: true})

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, analysis.AnalysisSummary{SampleRate: 44100}); err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(buf.Bytes(), []byte("tempo_bpm")) {
		t.Error("tempo_bpm serialised despite being unset")
	}
	if bytes.Contains(buf.Bytes(), []byte("duration_seconds")) {
		t.Error("duration_seconds serialised despite being unset")
	}
}
