// Package main provides the papercat CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/papercat/papercat/internal/config"
	"github.com/papercat/papercat/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "papercat",
	Short: "Catalog arXiv papers with model-extracted metadata",
	Long: `papercat builds a browsable catalog of academic papers.

It downloads PDFs from the arXiv search API, extracts bibliographic
metadata from each PDF with a chat-completion model, stores one row per
paper in SQLite, and serves a paginated listing with PDF links.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./"+config.FileName+")")
	rootCmd.Version = Version
}

// mustLoadConfig loads the configuration or exits with ExitConfigError.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the logger for cfg or exits.
func mustNewLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return log
}
