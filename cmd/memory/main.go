// memory is the Memory Master terminal game: remember a shape on an 8x8
// grid, rebuild it, and climb levels.
//
// Usage:
//
//	memory play              - Play a run right away
//	memory menu              - Start with the main menu
//	memory serve             - Serve the game over SSH plus the HTTP API
//	memory scores            - Print the leaderboard
//	memory config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.memory/configs, ./configs)
//	--db <dsn>          - SQLite path or postgres:// URL
//	--seed <value>      - RNG seed for reproducible shapes
//	--difficulty <name> - Starting difficulty: easy, normal, hard
//	--log-file <path>   - Write logs to a file
//	--log-level <level> - debug, info, warn, error
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/memory-master/internal/config"
	"github.com/vovakirdan/memory-master/internal/metrics"
	"github.com/vovakirdan/memory-master/internal/payment"
	"github.com/vovakirdan/memory-master/internal/platform/tui"
	"github.com/vovakirdan/memory-master/internal/storage"
)

var (
	// Global flags
	flagConfig     string
	flagDSN        string
	flagSeed       int64
	flagDifficulty string
	flagLogFile    string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memory",
	Short: "Memory Master - a shape memory game for the terminal",
	Long: `Memory Master shows a shape on an 8x8 grid for a few seconds, hides it,
and asks you to rebuild it from memory. Clear a round to level up; miss
three times and the run is over. A paid continue restarts you at the
level you failed on.

Available commands:
  play     - Play a run right away
  menu     - Main menu with difficulty and leaderboard
  serve    - Serve the game over SSH and the HTTP API
  scores   - Print the leaderboard
  config   - Print the effective configuration

Examples:
  memory play --difficulty hard
  memory menu
  memory serve
  memory scores --period weekly`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "db", "", "Scores database: SQLite path or postgres:// URL")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Starting difficulty: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads .env, the config file and MEMORY_* variables, then
// applies command line flags on top.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if flagDSN != "" {
		cfg.Leaderboard.DSN = flagDSN
	}
	if flagSeed != 0 {
		cfg.Game.Seed = flagSeed
	}
	if flagDifficulty != "" {
		cfg.Game.Difficulty = config.DifficultyPreset(flagDifficulty)
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger. Interactive commands own the
// terminal, so without --log-file they log nowhere; the server falls back
// to stderr.
func newLogger(fallback io.Writer) (*log.Logger, func(), error) {
	out := fallback
	closeFn := func() {}
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "memory",
	})
	return logger, closeFn, nil
}

// environment is everything a command needs to run games.
type environment struct {
	app     *tui.App
	cleanup func()
}

// setup loads the configuration and opens the store and payment provider.
// A store that cannot be opened is logged and skipped; the game still
// works without persistence.
func setup(ctx context.Context, logOut io.Writer) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(logOut)
	if err != nil {
		return nil, err
	}

	var store storage.Backend
	if s, err := storage.Open(ctx, cfg.Leaderboard.DSN); err != nil {
		logger.Warn("could not open scores database", "dsn", cfg.Leaderboard.DSN, "err", err)
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
	} else {
		store = s
	}

	provider, err := payment.FromConfig(cfg.Payment, store, logger)
	if err != nil {
		logger.Warn("payments unavailable", "mode", cfg.Payment.Mode, "err", err)
		provider = payment.Disabled{}
	}

	env := &environment{
		app: &tui.App{
			Config:  cfg,
			Store:   store,
			Payment: provider,
			Metrics: metrics.New(),
			Logger:  logger,
		},
	}
	env.cleanup = func() {
		if store != nil {
			store.Close()
		}
		closeLog()
	}
	return env, nil
}

// localPlayer returns the configured player, or a fresh guest.
func localPlayer(cfg config.Config) tui.Player {
	p := tui.Player{ID: cfg.Player.ID, Name: cfg.Player.Name, Handle: cfg.Player.Handle}
	if p.ID == "" {
		p.ID = "guest_" + uuid.NewString()
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	return p
}
