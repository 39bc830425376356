// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource decodes a RIFF/WAV file into mono float blocks. Multi-channel
// files are downmixed by averaging the channels.
type WAVSource struct {
	file    *os.File
	decoder *wav.Decoder
	buf     *audio.IntBuffer
}

// OpenWAV opens and validates a WAV file.
func OpenWAV(path string) (*WAVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%q is not a valid wav file", path)
	}

	return &WAVSource{file: file, decoder: decoder}, nil
}

// SampleRate returns the file's native sample rate.
func (s *WAVSource) SampleRate() int {
	return int(s.decoder.SampleRate)
}

// ReadBlock decodes up to len(dst) mono frames.
func (s *WAVSource) ReadBlock(dst []float64) (int, error) {
	channels := int(s.decoder.NumChans)
	if channels < 1 {
		return 0, fmt.Errorf("wav file reports %d channels", channels)
	}

	need := len(dst) * channels
	if s.buf == nil || cap(s.buf.Data) < need {
		s.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  int(s.decoder.SampleRate),
			},
			Data: make([]int, need),
		}
	}
	s.buf.Data = s.buf.Data[:need]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("failed to decode wav block: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	frames := n / channels
	scale := 1.0 / float64(uint64(1)<<(s.decoder.BitDepth-1))
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(s.buf.Data[i*channels+c])
		}
		dst[i] = sum / float64(channels) * scale
	}
	return frames, nil
}

// Close releases the underlying file.
func (s *WAVSource) Close() error {
	return s.file.Close()
}

var _ BlockSource = (*WAVSource)(nil)
