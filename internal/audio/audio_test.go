// SPDX-License-Identifier: MIT
package audio

import (
	"io"
	"math"
	"path/filepath"
	"testing"

	"musicviz/internal/source"
	"musicviz/pkg/utils"
)

const testSampleRate = 48000

func TestModeGating(t *testing.T) {
	block := utils.GenerateSineWave(1024, testSampleRate, 440, 0)

	live := NewAudioEngine(ModeLive, testSampleRate)
	if _, err := live.ProcessLiveBlock(block); err != nil {
		t.Errorf("live engine rejected live block: %v", err)
	}
	if _, err := live.ProcessSourceBlock(block); err == nil {
		t.Error("live engine accepted source block")
	}

	pre := NewAudioEngine(ModePrecomputed, testSampleRate)
	if _, err := pre.ProcessSourceBlock(block); err != nil {
		t.Errorf("precomputed engine rejected source block: %v", err)
	}
	if _, err := pre.ProcessLiveBlock(block); err == nil {
		t.Error("precomputed engine accepted live block")
	}
}

func TestAnalysisHandleReadsSharedState(t *testing.T) {
	engine := NewAudioEngine(ModeLive, testSampleRate)
	handle := engine.Handle()

	if _, ok, err := handle.LatestFrame(); err != nil || ok {
		t.Fatalf("fresh handle: (ok=%v, err=%v), want no frame", ok, err)
	}

	frame, err := engine.ProcessLiveBlock(utils.GenerateSineWave(1024, testSampleRate, 440, 0))
	if err != nil {
		t.Fatal(err)
	}

	latest, ok, err := handle.LatestFrame()
	if err != nil || !ok || latest != frame {
		t.Errorf("LatestFrame = (%+v, %v, %v), want processed frame", latest, ok, err)
	}

	got, err := handle.SampleAt(frame.Time)
	if err != nil || got != frame {
		t.Errorf("SampleAt = (%+v, %v), want processed frame", got, err)
	}

	summary, err := handle.Summary()
	if err != nil || summary.SampleRate != testSampleRate {
		t.Errorf("Summary = (%+v, %v)", summary, err)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeLive, "live"},
		{ModePrecomputed, "precomputed"},
		{Mode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestWAVRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.wav")

	rec, err := StartWAVRecorder(path, testSampleRate, 1024)
	if err != nil {
		t.Fatalf("StartWAVRecorder: %v", err)
	}

	tone := utils.GenerateSineWave(4096, testSampleRate, 440, 0)
	rec.Write(tone[:1024])
	rec.Write(tone[1024:2048])
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Writes after Stop are dropped silently.
	rec.Write(tone[2048:3072])
	if err := rec.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}

	src, err := source.OpenWAV(path)
	if err != nil {
		t.Fatalf("re-open recording: %v", err)
	}
	defer src.Close()

	if got := src.SampleRate(); got != testSampleRate {
		t.Errorf("sample rate = %d, want %d", got, testSampleRate)
	}

	decoded := make([]float64, 0, 2048)
	block := make([]float64, 512)
	for {
		n, err := src.ReadBlock(block)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		decoded = append(decoded, block[:n]...)
	}

	if len(decoded) != 2048 {
		t.Fatalf("decoded %d samples, want 2048 (post-Stop write must be dropped)", len(decoded))
	}
	for i := range 256 {
		if math.Abs(decoded[i]-tone[i]) > 1e-4 {
			t.Fatalf("sample %d = %v, want ~%v (16-bit quantization tolerance)", i, decoded[i], tone[i])
		}
	}
}

func TestWAVRecorderClampsOverRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	rec, err := StartWAVRecorder(path, testSampleRate, 4)
	if err != nil {
		t.Fatal(err)
	}
	rec.Write([]float64{2.0, -2.0, 0.5, -0.5})
	if err := rec.Stop(); err != nil {
		t.Fatal(err)
	}

	src, err := source.OpenWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	block := make([]float64, 4)
	if n, err := src.ReadBlock(block); err != nil || n != 4 {
		t.Fatalf("ReadBlock = (%d, %v)", n, err)
	}
	if block[0] < 0.99 || block[0] > 1 {
		t.Errorf("over-range sample decoded as %v, want ~1", block[0])
	}
	if block[1] > -0.99 || block[1] < -1 {
		t.Errorf("under-range sample decoded as %v, want ~-1", block[1])
	}
}
