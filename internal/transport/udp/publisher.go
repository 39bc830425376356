// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"musicviz/internal/analysis"
	applog "musicviz/internal/log"
	"musicviz/internal/transport"
)

// Publisher periodically fetches the latest analysis frame and sends it as
// a packed binary UDP packet. It runs in its own goroutine managed by Start
// and Stop.
type Publisher struct {
	sender   *Sender
	provider transport.FrameProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reused between packets.
}

// NewPublisher creates a Publisher sending one packet per interval.
// Intervals <= 0 default to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, provider transport.FrameProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp publisher: frame provider cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDP Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		provider:     provider,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins periodic publishing. Safe to call more than once; extra
// calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDP Publisher: Started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDP Publisher: Stopped.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

| Field           | Type    | Size | Description                        |
|-----------------|---------|------|------------------------------------|
| Sequence Number | uint32  | 4    | Monotonically increasing           |
| Timestamp       | int64   | 8    | Nanoseconds since epoch            |
| Feature Count   | uint16  | 2    | Number of float32 values (7)       |
| Features        | float32 | 7*4  | time, rms, centroid, beat, low,    |
|                 |         |      | high, flux                         |
*/

// buildAndSendPacket fetches the latest frame, packs it, and sends it.
// Ticks without a frame yet, or with a failed provider, send nothing.
func (p *Publisher) buildAndSendPacket() {
	frame, ok, err := p.provider.LatestFrame()
	if err != nil {
		applog.Errorf("UDP Publisher: Frame provider failed: %v", err)
		return
	}
	if !ok {
		return
	}

	p.sequenceNum++
	p.packetBuffer.Reset()

	binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	binary.Write(p.packetBuffer, binary.BigEndian, time.Now().UnixNano())
	features := packFeatures(frame)
	binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(features)))
	for _, f := range features {
		binary.Write(p.packetBuffer, binary.BigEndian, f)
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Errorf("UDP Publisher: Send failed: %v", err)
	}
}

// packFeatures flattens a frame into the wire order documented above.
func packFeatures(frame analysis.AnalysisFrame) [7]float32 {
	return [7]float32{
		float32(frame.Time),
		float32(frame.RMS),
		float32(frame.SpectralCentroid),
		float32(frame.BeatConfidence),
		float32(frame.LowBandEnergy),
		float32(frame.HighBandEnergy),
		float32(frame.SpectralFlux),
	}
}
