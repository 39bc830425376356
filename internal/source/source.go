// SPDX-License-Identifier: MIT
// Package source provides decoded-file block sources that feed the analysis
// engine. Decoding stays out here; the engine only ever sees mono float
// blocks.
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BlockSource yields mono sample blocks in stream order.
type BlockSource interface {
	// SampleRate returns the native sample rate of the decoded stream.
	SampleRate() int

	// ReadBlock fills dst with up to len(dst) mono samples in [-1, 1] and
	// returns how many were written. It returns io.EOF once the stream is
	// exhausted. Short reads happen only on the final block.
	ReadBlock(dst []float64) (int, error)

	Close() error
}

// Open selects a decoder by file extension.
func Open(path string) (BlockSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return OpenWAV(path)
	case ".mp3":
		return OpenMP3(path)
	default:
		return nil, fmt.Errorf("unsupported audio file %q (want .wav or .mp3)", path)
	}
}
