// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"musicviz/pkg/bitint"
)

// Boundaries and defaults for the analysis pipeline.
const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 1024

	MinBlockSize  = 2      // a transform needs at least two samples
	MinSampleRate = 8000   // minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // maximum supported sample rate (Hz)
	MaxBlockSize  = 8192

	DefaultDeviceID = -1 // -1 selects the system default input device
)

// Config is the main application configuration, loaded from YAML with
// environment overrides applied on top.
type Config struct {
	Debug    bool   `yaml:"debug"`     // Verbose logging and debug features.
	LogLevel string `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").

	Audio     AudioConfig     `yaml:"audio"`     // Capture and analysis settings.
	Recording RecordingConfig `yaml:"recording"` // Frame/WAV recording settings.
	Transport TransportConfig `yaml:"transport"` // Frame publishing settings.
}

// AudioConfig holds capture and block-analysis settings.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // Capture device index (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz.
	BlockSize   int     `yaml:"block_size"`   // Samples per analysis block.
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency capture buffers.
}

// RecordingConfig holds settings for the recording collaborators.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record analysis frames while running.
	FramePath string `yaml:"frame_path"` // JSON export path for recorded frames.
	WAVPath   string `yaml:"wav_path"`   // Raw input WAV path ("" disables).
}

// TransportConfig holds settings for publishing frames to consumers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve frames over WebSocket.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address (e.g. ":8080").
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send packed frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// Default returns the built-in configuration, mirroring the defaults the
// rest of the pipeline is tuned for (48kHz, 1024-sample blocks).
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			BlockSize:   DefaultBlockSize,
			LowLatency:  false,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			FramePath: "frames.json",
			WAVPath:   "",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddress: ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
		},
	}
}

// Load reads configuration from the YAML file at path. An empty path falls
// back to "config.yaml" if present, otherwise the built-in defaults. Env
// overrides are applied after the file and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and normalizes the block size for capture use.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.BlockSize < MinBlockSize {
		return fmt.Errorf("audio.block_size %d below minimum %d", c.Audio.BlockSize, MinBlockSize)
	}
	if c.Audio.BlockSize > MaxBlockSize {
		return fmt.Errorf("audio.block_size %d above maximum %d", c.Audio.BlockSize, MaxBlockSize)
	}

	// Capture drivers behave best with power-of-2 callbacks; round up rather
	// than reject.
	if !bitint.IsPowerOfTwo(c.Audio.BlockSize) {
		c.Audio.BlockSize = bitint.NextPowerOfTwo(c.Audio.BlockSize)
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	return nil
}

// applyEnvOverrides layers MUSICVIZ_* environment variables over the loaded
// configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("MUSICVIZ_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("MUSICVIZ_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("MUSICVIZ_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = fVal
		}
	}
	if val, ok := os.LookupEnv("MUSICVIZ_BLOCK_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.BlockSize = iVal
		}
	}
	if val, ok := os.LookupEnv("MUSICVIZ_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		c.Transport.UDPEnabled = true
	}
}
