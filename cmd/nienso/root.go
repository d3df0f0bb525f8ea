package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "nienso",
	Short:        "An Phúc Niên Sổ operator tools",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// newLogger writes to stderr so command output on stdout stays machine readable.
func newLogger(cfg *common.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg != nil {
		level = cfg.SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
