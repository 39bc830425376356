// SPDX-License-Identifier: MIT
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// mp3 frames are always 16-bit little-endian stereo: 4 bytes per frame.
const mp3BytesPerFrame = 4

// MP3Source decodes an MP3 file into mono float blocks by averaging the
// stereo channels.
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	raw     []byte
}

// OpenMP3 opens and validates an MP3 file.
func OpenMP3(path string) (*MP3Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%q is not a valid mp3 file: %w", path, err)
	}

	return &MP3Source{file: file, decoder: decoder}, nil
}

// SampleRate returns the file's native sample rate.
func (s *MP3Source) SampleRate() int {
	return s.decoder.SampleRate()
}

// ReadBlock decodes up to len(dst) mono frames.
func (s *MP3Source) ReadBlock(dst []float64) (int, error) {
	need := len(dst) * mp3BytesPerFrame
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:need]

	n, err := io.ReadFull(s.decoder, raw)
	if err == io.ErrUnexpectedEOF {
		err = nil // short final block
	}
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("failed to decode mp3 block: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	frames := n / mp3BytesPerFrame
	for i := range frames {
		off := i * mp3BytesPerFrame
		left := int16(binary.LittleEndian.Uint16(raw[off:]))
		right := int16(binary.LittleEndian.Uint16(raw[off+2:]))
		dst[i] = (float64(left) + float64(right)) / 2 / 32768
	}
	return frames, nil
}

// Close releases the underlying file.
func (s *MP3Source) Close() error {
	return s.file.Close()
}

var _ BlockSource = (*MP3Source)(nil)
