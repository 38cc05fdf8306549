// Overmind is the operator console for the S60 rail scaffold kit.
//
// Plans how to turn the current rail arrangement into a target arrangement
// and dispatches the resulting command sequences to the feeder and train
// builder over the radio bridge.
//
// Build:
//   go build -o overmind ./cmd/overmind
//
// Typical session:
//   overmind demo demo.ovm
//   overmind plan demo.ovm --pdf plan.pdf
//   overmind exec demo.ovm --dry-run

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/planner"
	"github.com/piwi3910/overmind/internal/project"
)

var (
	configPath string
	logLevel   string

	cfg     model.AppConfig
	history *project.CommandHistory
)

var rootCmd = &cobra.Command{
	Use:           "overmind",
	Short:         "Plan and execute rail scaffold rearrangements",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = project.LoadAppConfig(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		setupLogging(cfg.LogLevel)

		historyPath := cfg.HistoryPath
		if !filepath.IsAbs(historyPath) {
			historyPath = filepath.Join(filepath.Dir(configPath), historyPath)
		}
		if history, err = project.LoadOrSeedHistory(historyPath, planner.DefaultMacros()); err != nil {
			return fmt.Errorf("failed to load command history: %w", err)
		}
		slog.Debug("console ready", "config", configPath, "history", historyPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", project.DefaultConfigPath(), "path to the console config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
