// SPDX-License-Identifier: MIT
// Package cmd wires the command-line interface: file analysis, live
// capture, and device listing.
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"musicviz/internal/analysis"
	"musicviz/internal/audio"
	"musicviz/internal/config"
	applog "musicviz/internal/log"
	"musicviz/internal/record"
	"musicviz/internal/source"
	"musicviz/internal/transport"
	"musicviz/internal/transport/udp"
	"musicviz/pkg/build"
)

// flag values layered over the loaded configuration
var (
	flagConfigPath string
	flagDevice     int
	flagSampleRate float64
	flagBlockSize  int
	flagLowLatency bool
	flagRecord     bool
	flagExportPath string
	flagWAVPath    string
	flagVerbose    bool
)

// Execute parses arguments and runs the selected command.
func Execute() error {
	buildInfo := build.Get()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Streaming audio analysis for music visualisation",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Path to YAML config file (default: config.yaml if present)")
	rootCmd.PersistentFlags().IntVarP(&flagDevice, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&flagSampleRate, "sample-rate", "s", 0,
		"Sample rate in Hz (0 uses config/default)")
	rootCmd.PersistentFlags().IntVarP(&flagBlockSize, "block-size", "b", 0,
		"Samples per analysis block (0 uses config/default)")
	rootCmd.PersistentFlags().BoolVarP(&flagLowLatency, "low-latency", "l", false,
		"Use low latency capture buffers")
	rootCmd.PersistentFlags().BoolVarP(&flagRecord, "record", "r", false,
		"Record analysis frames for JSON export")
	rootCmd.PersistentFlags().StringVarP(&flagExportPath, "export", "o", "",
		"Write recorded frames to this JSON file on exit")
	rootCmd.PersistentFlags().StringVar(&flagWAVPath, "wav", "",
		"Record the raw input stream to this WAV file (live mode)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Show verbose output")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a WAV or MP3 file and print the stream summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAnalyze(cfg, args[0], cmd.OutOrStdout())
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "Analyze a live input stream until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runLive(cfg, cmd.OutOrStdout())
		},
	}
	rootCmd.AddCommand(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices()
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// loadConfig reads the config file and layers the command-line flags over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}

	if flagDevice != config.DefaultDeviceID {
		cfg.Audio.InputDevice = flagDevice
	}
	if flagSampleRate > 0 {
		cfg.Audio.SampleRate = flagSampleRate
	}
	if flagBlockSize > 0 {
		cfg.Audio.BlockSize = flagBlockSize
	}
	if flagLowLatency {
		cfg.Audio.LowLatency = true
	}
	if flagRecord {
		cfg.Recording.Enabled = true
	}
	if flagExportPath != "" {
		cfg.Recording.Enabled = true
		cfg.Recording.FramePath = flagExportPath
	}
	if flagWAVPath != "" {
		cfg.Recording.WAVPath = flagWAVPath
	}
	if flagVerbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	// Flags may have bypassed Load's validation; check the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runAnalyze decodes the file block by block and prints the summary.
func runAnalyze(cfg *config.Config, path string, out io.Writer) error {
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	engine := audio.NewAudioEngine(audio.ModePrecomputed, src.SampleRate())
	recorder := record.NewRecorder(record.Settings{Enabled: cfg.Recording.Enabled})

	block := make([]float64, cfg.Audio.BlockSize)
	for {
		n, err := src.ReadBlock(block)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if n < config.MinBlockSize {
			// A trailing single sample cannot be transformed; drop it.
			continue
		}

		frame, err := engine.ProcessSourceBlock(block[:n])
		if err != nil {
			return err
		}
		recorder.RecordFrame(frame)
	}

	summary, err := engine.Analysis().Summary()
	if err != nil {
		return err
	}
	printSummary(out, path, summary)

	if cfg.Recording.Enabled {
		if err := recorder.WriteJSONFile(cfg.Recording.FramePath, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d frames to %s\n", recorder.FrameCount(), cfg.Recording.FramePath)
	}
	return nil
}

// runLive captures from the configured input device until SIGINT/SIGTERM.
func runLive(cfg *config.Config, out io.Writer) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	engine := audio.NewAudioEngine(audio.ModeLive, int(cfg.Audio.SampleRate))
	recorder := record.NewRecorder(record.Settings{Enabled: cfg.Recording.Enabled})

	var wavRec *audio.WAVRecorder
	if cfg.Recording.WAVPath != "" {
		var err error
		wavRec, err = audio.StartWAVRecorder(cfg.Recording.WAVPath,
			int(cfg.Audio.SampleRate), cfg.Audio.BlockSize)
		if err != nil {
			return err
		}
	}

	transports, closers, err := buildTransports(cfg, engine.Analysis())
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				applog.Warnf("Shutdown: %v", err)
			}
		}
	}()

	capture, err := audio.NewCapture(cfg, engine, recorder, wavRec, transports)
	if err != nil {
		return err
	}
	if err := capture.Start(cfg.Audio.SampleRate); err != nil {
		return err
	}

	fmt.Fprintln(out, "Analyzing live input. Press Ctrl+C to stop.")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	if err := capture.Stop(); err != nil {
		applog.Errorf("Shutdown: Failed to stop capture: %v", err)
	}
	if wavRec != nil {
		if err := wavRec.Stop(); err != nil {
			applog.Errorf("Shutdown: Failed to finalize WAV recording: %v", err)
		} else {
			fmt.Fprintf(out, "\nInput recording saved to %s\n", cfg.Recording.WAVPath)
		}
	}

	summary, err := capture.Summary()
	if err != nil {
		return err
	}
	printSummary(out, "live input", summary)

	if cfg.Recording.Enabled {
		if err := recorder.WriteJSONFile(cfg.Recording.FramePath, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d frames to %s\n", recorder.FrameCount(), cfg.Recording.FramePath)
	}
	return nil
}

// buildTransports assembles the enabled frame publishers and returns the
// closers that shut them down.
func buildTransports(cfg *config.Config, shared *analysis.SharedEngine) ([]transport.Transport, []func() error, error) {
	var transports []transport.Transport
	var closers []func() error

	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}

	if cfg.Transport.WebSocketEnabled {
		wst := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		transports = append(transports, wst)
		closers = append(closers, wst.Close)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, closers, err
		}
		publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, shared)
		if err != nil {
			sender.Close()
			return nil, closers, err
		}
		publisher.Start()
		closers = append(closers, publisher.Stop, sender.Close)
	}

	return transports, closers, nil
}

// printSummary writes the stream summary in a fixed human-readable layout.
func printSummary(out io.Writer, name string, summary analysis.AnalysisSummary) {
	fmt.Fprintf(out, "\nAnalysis of %s\n", name)
	fmt.Fprintf(out, "  Sample rate: %d Hz\n", summary.SampleRate)
	if summary.DurationSeconds != nil {
		fmt.Fprintf(out, "  Duration:    %.2f s\n", *summary.DurationSeconds)
	} else {
		fmt.Fprintf(out, "  Duration:    (no audio processed)\n")
	}
	if summary.TempoBPM != nil {
		fmt.Fprintf(out, "  Tempo:       %.1f BPM\n", *summary.TempoBPM)
	} else {
		fmt.Fprintf(out, "  Tempo:       (not enough beats)\n")
	}
}
