package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"threatsim/internal/sim"
	"threatsim/internal/threat"
)

var (
	replayInput      string
	replayConfigPath string
	replaySchemaPath string
	replayOutFile    string
	replaySQLite     string
	replayPrintOnly  bool
	replayScoring    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Recompute threats from a recorded event log",
	Long:  "replay feeds a battle event log through a fresh threat registry and writes the recomputed threat rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig(replayConfigPath, replaySchemaPath)
		if err != nil {
			return err
		}
		writer, _, cleanup, err := newWriters(cfg, writerOptions{
			PrintOnly:  replayPrintOnly,
			OutFile:    replayOutFile,
			SQLitePath: replaySQLite,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		var opts []threat.Option
		if replayScoring {
			opts = append(opts, threat.WithTrackingScorer(sim.WeightedTrackingScore))
		}
		ticks, err := sim.ReplayLogFile(replayInput, cfg.Threat, writer, opts...)
		if err != nil {
			return err
		}
		logger.Info("replay finished", "input", replayInput, "ticks", ticks)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to the battle event log (JSONL)")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "", "Path to configuration YAML (defaults built in)")
	replayCmd.Flags().StringVar(&replaySchemaPath, "schema", "", "Path to CUE schema file (embedded schema if empty)")
	replayCmd.Flags().StringVar(&replayOutFile, "out", "", "Write recomputed threat rows to this JSONL file")
	replayCmd.Flags().StringVar(&replaySQLite, "sqlite", "", "Archive recomputed rows into this SQLite database")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	replayCmd.Flags().BoolVar(&replayScoring, "tracking-score", true, "Fill the tracking score with the weighted harness scorer")
	replayCmd.MarkFlagRequired("input")
}
