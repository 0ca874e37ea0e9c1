package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"threatsim/internal/logging"
)

var (
	logLevel   string
	logFile    string
	logger     = slog.Default()
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "threatsim",
	Short: "Enemy threat estimation toolkit",
	Long:  "threatsim runs simulated battles through the per-enemy threat estimator and replays recorded battles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		var out io.Writer = os.Stderr
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			out = f
			logCleanup = func() { f.Close() }
		} else if simTUI && cmd == simulateCmd {
			// The TUI owns the terminal.
			out = io.Discard
		}
		logger = logging.New(out, level)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logCleanup()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of STDERR")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(scenariosCmd)
}
