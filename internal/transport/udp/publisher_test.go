// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"musicviz/internal/analysis"
)

type stubProvider struct {
	frame analysis.AnalysisFrame
	ok    bool
	err   error
}

func (s *stubProvider) LatestFrame() (analysis.AnalysisFrame, bool, error) {
	return s.frame, s.ok, s.err
}

func newLoopback(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func TestPacketLayout(t *testing.T) {
	listener, addr := newLoopback(t)

	sender, err := NewSender(addr)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	provider := &stubProvider{
		frame: analysis.AnalysisFrame{
			Time:             1.5,
			RMS:              0.25,
			SpectralCentroid: 0.4,
			BeatConfidence:   1,
			LowBandEnergy:    0.7,
			HighBandEnergy:   0.1,
			SpectralFlux:     0.05,
		},
		ok: true,
	}
	pub, err := NewPublisher(time.Second, sender, provider)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	pub.buildAndSendPacket()

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	const want = 4 + 8 + 2 + 7*4
	if n != want {
		t.Fatalf("packet size = %d, want %d", n, want)
	}

	if seq := binary.BigEndian.Uint32(buf[0:4]); seq != 1 {
		t.Errorf("sequence = %d, want 1", seq)
	}
	if count := binary.BigEndian.Uint16(buf[12:14]); count != 7 {
		t.Errorf("feature count = %d, want 7", count)
	}

	features := packFeatures(provider.frame)
	for i, wantF := range features {
		off := 14 + i*4
		gotF := math.Float32frombits(binary.BigEndian.Uint32(buf[off : off+4]))
		if gotF != wantF {
			t.Errorf("feature %d = %v, want %v", i, gotF, wantF)
		}
	}
}

func TestPublisherSkipsWithoutFrames(t *testing.T) {
	listener, addr := newLoopback(t)

	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Second, sender, &stubProvider{ok: false})
	if err != nil {
		t.Fatal(err)
	}
	pub.buildAndSendPacket()

	pub.provider = &stubProvider{err: errors.New("poisoned")}
	pub.buildAndSendPacket()

	listener.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 64)
	if n, _, err := listener.ReadFromUDP(buf); err == nil {
		t.Errorf("received %d unexpected bytes", n)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	_, addr := newLoopback(t)
	sender, err := NewSender(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	pub, err := NewPublisher(5*time.Millisecond, sender, &stubProvider{ok: false})
	if err != nil {
		t.Fatal(err)
	}

	pub.Start()
	pub.Start() // no-op while running
	time.Sleep(20 * time.Millisecond)
	if err := pub.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
