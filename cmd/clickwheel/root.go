package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pes18fan/clickwheel/artwork"
	"github.com/pes18fan/clickwheel/audio"
	"github.com/pes18fan/clickwheel/config"
	"github.com/pes18fan/clickwheel/library"
	"github.com/pes18fan/clickwheel/logger"
	"github.com/pes18fan/clickwheel/ui"
	"github.com/pes18fan/clickwheel/volume"
)

// How long to wait for the engine to let go of the speaker on exit.
const shutdownTimeout = 2 * time.Second

var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:   "clickwheel [file]",
	Short: "clickwheel is a terminal music player with an iPod-style face.",
	Long: "clickwheel plays a local mp3, flac, ogg or wav file. Pick one with the\n" +
		"menu key or pass it as an argument.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var file string
		if len(args) == 1 {
			file = args[0]
		}
		return run(cfg, file)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cfg.MusicDir, "dir", "d", cfg.MusicDir, "directory the file picker opens in")
	flags.Float64Var(&cfg.Volume, "volume", cfg.Volume, "starting volume, 0 to 1")
	flags.DurationVar(&cfg.SeekStep, "seek-step", cfg.SeekStep, "distance of one seek gesture")
	flags.DurationVar(&cfg.IndicatorTimeout, "indicator-timeout", cfg.IndicatorTimeout, "how long the volume bar stays up")
	flags.DurationVar(&cfg.PositionInterval, "position-interval", cfg.PositionInterval, "how often the play position is refreshed")
	flags.BoolVar(&cfg.Artwork, "art", cfg.Artwork, "show embedded cover art (kitty graphics terminals)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, file string) error {
	if cfg.SeekStep <= 0 || cfg.IndicatorTimeout <= 0 || cfg.PositionInterval <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if file != "" && !audio.Supported(file) {
		return fmt.Errorf("can't play %s: %w", file, audio.ErrUnsupportedFormat)
	}

	log, err := logger.New(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = log.Sync() }()

	level := volume.Clamp(cfg.Volume)
	log.Info("starting clickwheel",
		zap.String("dir", cfg.MusicDir),
		zap.Int("volume", level.Percent()),
		zap.Bool("art", cfg.Artwork))

	opts := audio.Options{
		PositionInterval: cfg.PositionInterval,
		Volume:           level,
		Artwork:          cfg.Artwork,
		Logger:           log,
	}
	if cfg.Artwork {
		opts.Cell = artwork.TerminalCell()
	}
	engine := audio.NewEngine(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	watcher, err := library.NewWatcher(log)
	if err != nil {
		// The picker still works, it just won't refresh on its own.
		log.Warn("failed to start library watcher", zap.Error(err))
		watcher = nil
	} else {
		defer watcher.Close()
	}

	model := ui.New(ui.Options{
		Player:           engine,
		Status:           engine.Status(),
		Watcher:          watcher,
		MusicDir:         cfg.MusicDir,
		Volume:           level,
		IndicatorTimeout: cfg.IndicatorTimeout,
		SeekStep:         cfg.SeekStep,
		File:             file,
		Logger:           log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	log.Debug("set up tea program")

	_, runErr := p.Run()

	// Close is idempotent; the UI already closes the engine on quit.
	_ = engine.Close()
	select {
	case <-engine.Done():
	case <-time.After(shutdownTimeout):
		log.Warn("audio engine did not shut down in time")
		cancel()
	}

	if runErr != nil {
		log.Error("tea program got error", zap.Error(runErr))
		return fmt.Errorf("tea program got error: %w", runErr)
	}
	log.Info("bye")
	return nil
}
