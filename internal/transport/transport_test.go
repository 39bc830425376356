// SPDX-License-Identifier: MIT
package transport

import (
	"testing"

	"musicviz/internal/analysis"
	"musicviz/pkg/utils"
)

// Compile-time conformance: the mock stands in for real transports in
// tests, and the shared engine feeds pull-based publishers.
var (
	_ Transport     = (*utils.MockTransport)(nil)
	_ FrameProvider = (*analysis.SharedEngine)(nil)
)

func TestMockTransportFanOut(t *testing.T) {
	transports := []Transport{&utils.MockTransport{}, &utils.MockTransport{}}

	frame := analysis.AnalysisFrame{Time: 0.5, RMS: 0.3}
	for _, tr := range transports {
		if err := tr.Send(frame); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for i, tr := range transports {
		mock := tr.(*utils.MockTransport)
		if len(mock.Sent) != 1 || mock.Sent[0] != any(frame) {
			t.Errorf("transport %d: Sent = %v, want the frame", i, mock.Sent)
		}
	}
}

func TestWebSocketSendNeverBlocks(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()

	// Far more sends than the queue holds; overflow is dropped, not blocked.
	for i := 0; i < 2048; i++ {
		if err := wst.Send(analysis.AnalysisFrame{Time: float64(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
}

func TestWebSocketCloseIdempotent(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
