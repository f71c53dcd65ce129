package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shelforg/internal/config"
)

var version = "dev"

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "shelforg",
	Short: "Organize audiobook files into a structured library",
	Long: `shelforg - audiobook library organizer

Matches loose audiobook files against the Audible catalog using embedded
tags, filenames, and keyword search, then renames and relocates them into
an Audiobookshelf-friendly folder layout with metadata sidecars.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: auto-discover)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log errors only")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("shelforg {{.Version}}\n")
}

// loadConfig loads the config file named by --config or by discovery.
// A missing or invalid config is a hard failure; no partial run happens.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.Discover()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &config.ConfigError{Path: path, Errors: problems}
	}
	return cfg, nil
}

// buildLogger builds the process logger. The --verbose and --quiet flags
// override the configured level.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Organizer.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// summaryLine prints the end-of-run counters to stdout for operators running
// without log scraping.
func summaryLine(processed, failed int) {
	fmt.Printf("Processed: %d  Failed: %d\n", processed, failed)
}
