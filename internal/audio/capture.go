// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"musicviz/internal/analysis"
	"musicviz/internal/config"
	applog "musicviz/internal/log"
	"musicviz/internal/record"
	"musicviz/internal/transport"
)

// Capture drives a live analysis session from a PortAudio input stream.
// The callback converts each mono float32 buffer to float64, feeds the
// engine, and fans the resulting frame out to the recorder and transports.
type Capture struct {
	engine *AudioEngine

	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream

	blockSize int
	block     []float64 // reused conversion buffer, sized at construction

	recorder   *record.Recorder
	wavRec     *WAVRecorder
	transports []transport.Transport
}

// NewCapture prepares a capture session. The engine must be in live mode.
// recorder, wavRec and transports may be nil/empty.
func NewCapture(cfg *config.Config, engine *AudioEngine, recorder *record.Recorder,
	wavRec *WAVRecorder, transports []transport.Transport) (*Capture, error) {
	if engine.Mode() != ModeLive {
		return nil, fmt.Errorf("capture requires a live-mode engine, got %s", engine.Mode())
	}

	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	latency := device.DefaultHighInputLatency
	if cfg.Audio.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	return &Capture{
		engine:     engine,
		device:     device,
		latency:    latency,
		blockSize:  cfg.Audio.BlockSize,
		block:      make([]float64, cfg.Audio.BlockSize),
		recorder:   recorder,
		wavRec:     wavRec,
		transports: transports,
	}, nil
}

// Start opens the input stream and begins delivering blocks to the engine.
func (c *Capture) Start(sampleRate float64) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1, // analysis is mono; let the driver downmix
			Device:   c.device,
			Latency:  c.latency,
		},
		FramesPerBuffer: c.blockSize,
		SampleRate:      sampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	applog.Infof("Capture: Streaming from %q (block %d, latency %s)",
		c.device.Name, c.blockSize, c.latency)
	return nil
}

// processInputStream is the real-time callback. It must not block or
// allocate; analysis work is bounded by the block size.
func (c *Capture) processInputStream(in []float32) {
	n := len(in)
	if n > len(c.block) {
		n = len(c.block)
	}
	for i := range n {
		c.block[i] = float64(in[i])
	}

	frame, err := c.engine.ProcessLiveBlock(c.block[:n])
	if err != nil {
		// A short driver buffer or poisoned engine; skip the block.
		applog.Debugf("Capture: Dropping block: %v", err)
		return
	}

	if c.wavRec != nil {
		c.wavRec.Write(c.block[:n])
	}
	if c.recorder != nil {
		c.recorder.RecordFrame(frame)
	}
	for _, t := range c.transports {
		if err := t.Send(frame); err != nil {
			applog.Warnf("Capture: Transport send failed: %v", err)
		}
	}
}

// Stop halts and closes the input stream.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	c.stream = nil
	return nil
}

// Summary returns the analysis summary accumulated so far.
func (c *Capture) Summary() (analysis.AnalysisSummary, error) {
	return c.engine.Analysis().Summary()
}
