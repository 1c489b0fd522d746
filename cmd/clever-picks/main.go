// Package main provides the clever-picks command line: scoring, parlays,
// grading and performance reports over the bet ledger.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/engine"
	"github.com/yourusername/clever-picks/internal/ledger"
	"github.com/yourusername/clever-picks/internal/logger"
	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "clever-picks",
	Short:         "Score betting markets, build parlays and grade tracked picks",
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newParlaysCmd())
	rootCmd.AddCommand(newGradeCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newPerformanceCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// setup loads .env, configuration and logging shared by every command
func setup() error {
	_ = godotenv.Load()

	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		loaded.App.LogLevel = logLevel
	}
	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	appLog = logger.NewLoggerTo(os.Stderr, cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"ledger":      cfg.Ledger.Store,
		"markets":     cfg.Engine.Markets,
	}).Debug("Configuration loaded")
	return nil
}

// newEngine builds the engine, opening the ledger store when withLedger is
// set. The returned close function releases the store.
func newEngine(ctx context.Context, withLedger bool) (*engine.Engine, func(), error) {
	closeFn := func() {}

	var l *ledger.Ledger
	if withLedger {
		repo, err := repository.NewTrackedBetRepository(ctx, cfg)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to open ledger store: %w", err)
		}
		closeFn = func() {
			if err := repo.Close(); err != nil {
				appLog.WithError(err).Error("Failed to close ledger store")
			}
		}

		l, err = ledger.New(repo, cfg.Ledger.Tiers, appLog)
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
	}

	e, err := engine.New(cfg.Engine, nil, l, appLog)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return e, closeFn, nil
}
