// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "musicviz/internal/log"
)

// wavBitDepth is the bit depth for recorded input audio.
const wavBitDepth = 16

// WAVRecorder writes the raw mono input stream to a WAV file while the
// analysis runs, so a live session can be re-analysed later from disk.
type WAVRecorder struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *goaudio.IntBuffer
	recording bool
}

// StartWAVRecorder creates the output file and begins accepting samples.
func StartWAVRecorder(path string, sampleRate, blockSize int) (*WAVRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &WAVRecorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, wavBitDepth, 1, 1),
		sampleBuf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:   make([]int, blockSize),
		},
		recording: true,
	}, nil
}

// Write appends one block of mono samples in [-1, 1]. Blocks arriving
// after Stop are dropped.
func (r *WAVRecorder) Write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.sampleBuf.Data[i] = int(s * 32767)
	}

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		// Keep capturing; one failed write must not kill the session.
		applog.Errorf("WAVRecorder: Write failed: %v", err)
	}
}

// Stop finalizes the WAV header and closes the file.
func (r *WAVRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	r.recording = false

	if err := r.encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close wav file: %w", err)
	}
	return nil
}
