// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"sync"
	"testing"

	"musicviz/pkg/utils"
)

func TestSharedEngineRoundTrip(t *testing.T) {
	s := NewSharedEngine(NewEngine(testSampleRate))

	frame, err := s.ProcessBlock(utils.GenerateSineWave(testBlockSize, testSampleRate, 440, 0))
	if err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	got, err := s.SampleAt(frame.Time)
	if err != nil {
		t.Fatalf("SampleAt: %v", err)
	}
	if got != frame {
		t.Errorf("SampleAt(%v) = %+v, want the processed frame", frame.Time, got)
	}

	latest, ok, err := s.LatestFrame()
	if err != nil || !ok || latest != frame {
		t.Errorf("LatestFrame = (%+v, %v, %v), want the processed frame", latest, ok, err)
	}

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.SampleRate != testSampleRate {
		t.Errorf("sample rate = %d, want %d", summary.SampleRate, testSampleRate)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, _ := s.LatestFrame(); ok {
		t.Error("frame survived Reset")
	}
}

func TestSharedEnginePoisoning(t *testing.T) {
	s := NewSharedEngine(NewEngine(testSampleRate))
	if _, err := s.ProcessBlock(utils.Silence(testBlockSize)); err != nil {
		t.Fatal(err)
	}

	// Sabotage the inner engine so the next guarded call panics.
	s.engine.spectral = nil

	_, err := s.ProcessBlock(utils.Silence(testBlockSize))
	if !errors.Is(err, ErrEnginePoisoned) {
		t.Fatalf("panicking call: err = %v, want ErrEnginePoisoned", err)
	}

	// Every later call surfaces the poisoned state rather than stale data.
	if _, err := s.SampleAt(0); !errors.Is(err, ErrEnginePoisoned) {
		t.Errorf("SampleAt after poison: err = %v", err)
	}
	if _, err := s.Summary(); !errors.Is(err, ErrEnginePoisoned) {
		t.Errorf("Summary after poison: err = %v", err)
	}
	if _, _, err := s.LatestFrame(); !errors.Is(err, ErrEnginePoisoned) {
		t.Errorf("LatestFrame after poison: err = %v", err)
	}
	if err := s.Reset(); !errors.Is(err, ErrEnginePoisoned) {
		t.Errorf("Reset after poison: err = %v", err)
	}
}

func TestSharedEngineConcurrentReaders(t *testing.T) {
	s := NewSharedEngine(NewEngine(testSampleRate))

	var wg sync.WaitGroup
	wg.Add(2)

	// Single writer in block order.
	go func() {
		defer wg.Done()
		phase := 0
		for i := 0; i < 200; i++ {
			if _, err := s.ProcessBlock(utils.GenerateSineWave(512, testSampleRate, 440, phase)); err != nil {
				t.Errorf("writer: %v", err)
				return
			}
			phase += 512
		}
	}()

	// Render-style reader sampling a clock.
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := s.SampleAt(float64(i) / 100); err != nil {
				t.Errorf("reader: %v", err)
				return
			}
			if _, err := s.Summary(); err != nil {
				t.Errorf("reader summary: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}
