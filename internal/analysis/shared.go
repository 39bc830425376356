// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
)

// SharedEngine makes an Engine safe to share between one producer goroutine
// and any number of readers (e.g. a render loop sampling frames). The lock
// spans a single call only; both reads and writes are O(block) or
// O(log history), so contention stays negligible.
//
// A panic inside a guarded call poisons the wrapper: the engine may be half
// updated, so every later call fails with ErrEnginePoisoned instead of
// handing out untrustworthy data.
type SharedEngine struct {
	mu       sync.Mutex
	engine   *Engine
	poisoned bool
}

// NewSharedEngine wraps engine for concurrent use. The wrapper takes
// ownership; callers must not keep direct references to the engine.
func NewSharedEngine(engine *Engine) *SharedEngine {
	return &SharedEngine{engine: engine}
}

// ProcessBlock analyses one block under the lock. See Engine.ProcessBlock.
func (s *SharedEngine) ProcessBlock(samples []float64) (frame AnalysisFrame, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return AnalysisFrame{}, ErrEnginePoisoned
	}
	defer s.recoverPoison(&err)
	return s.engine.ProcessBlock(samples)
}

// SampleAt returns the frame covering time t. See Engine.SampleAt.
func (s *SharedEngine) SampleAt(t float64) (frame AnalysisFrame, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return AnalysisFrame{}, ErrEnginePoisoned
	}
	defer s.recoverPoison(&err)
	return s.engine.SampleAt(t), nil
}

// LatestFrame returns the most recent frame, if any.
func (s *SharedEngine) LatestFrame() (frame AnalysisFrame, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return AnalysisFrame{}, false, ErrEnginePoisoned
	}
	defer s.recoverPoison(&err)
	frame, ok = s.engine.LatestFrame()
	return frame, ok, nil
}

// Summary returns a snapshot of the running summary.
func (s *SharedEngine) Summary() (summary AnalysisSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return AnalysisSummary{}, ErrEnginePoisoned
	}
	defer s.recoverPoison(&err)
	return s.engine.Summary(), nil
}

// Reset clears the analysis state. See Engine.Reset.
func (s *SharedEngine) Reset() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrEnginePoisoned
	}
	defer s.recoverPoison(&err)
	s.engine.Reset()
	return nil
}

// recoverPoison marks the engine unusable after a panic under the lock and
// converts the panic into an error for the current caller.
func (s *SharedEngine) recoverPoison(err *error) {
	if r := recover(); r != nil {
		s.poisoned = true
		*err = fmt.Errorf("%w: %v", ErrEnginePoisoned, r)
	}
}
