package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"threatsim/internal/admin"
	"threatsim/internal/config"
	"threatsim/internal/logging"
	"threatsim/internal/scenario"
	"threatsim/internal/sim"
)

var (
	simConfigPath string
	simSchemaPath string
	simScenario   string
	simTick       time.Duration
	simPrintOnly  bool
	simTUI        bool
	simOutFile    string
	simEventsFile string
	simSQLite     string
	simAdminAddr  string
	simTrace      bool
	simScoring    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated battle",
	Long:  "simulate drives a scenario's bots against the observer and emits the threat picture every tick.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simEventsFile != "" && simOutFile == "" {
			return fmt.Errorf("--events requires --out")
		}
		cfg, err := loadConfig(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		name := simScenario
		if name == "" {
			name = cfg.Simulation.Scenario
		}
		sc, err := scenario.Resolve(name)
		if err != nil {
			return err
		}

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		useTUI := simTUI && interactive
		if simTUI && !interactive {
			logger.Warn("stdout is not a terminal, falling back to plain output")
		}
		writer, tui, cleanup, err := newWriters(cfg, writerOptions{
			PrintOnly:  simPrintOnly,
			Colorize:   interactive,
			TUI:        useTUI,
			OutFile:    simOutFile,
			EventsFile: simEventsFile,
			SQLitePath: simSQLite,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
			}
			tickInterval = d
		}

		var opts []sim.Option
		if simTrace {
			opts = append(opts, sim.WithTraceLogger(logger))
		}
		if simScoring {
			opts = append(opts, sim.WithTrackingScorer(sim.WeightedTrackingScore))
		}
		simulator := sim.NewSimulator(os.Getenv("BATTLE_ID"), cfg, sc, writer, tickInterval, opts...)
		if tui != nil {
			tui.SetRetirer(simulator.Retire)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger.With("battle_id", simulator.BattleID()))

		if simAdminAddr != "" {
			var accessLog io.Writer
			if !useTUI {
				accessLog = os.Stderr
			}
			srv := admin.NewServer(simulator, accessLog, logger)
			go func() {
				if aw, ok := writer.(sim.AdminStatusWriter); ok {
					aw.SetAdminStatus(simAdminAddr, true)
					defer aw.SetAdminStatus(simAdminAddr, false)
				}
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					logger.Error("admin server failed", "addr", simAdminAddr, "err", err)
				}
			}()
		}

		simulator.Run(ctx)
		if tui != nil && ctx.Err() == nil {
			// Keep the final picture on screen until the user quits.
			<-ctx.Done()
		}
		logger.Info("battle stopped", "tick", simulator.Tick(), "observer_energy", simulator.ObserverEnergy())
		return nil
	},
}

// loadConfig reads the YAML config, or returns the defaults when no path
// is given.
func loadConfig(path, schema string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path, schema)
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "Path to configuration YAML (defaults built in)")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (embedded schema if empty)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 100*time.Millisecond, "Tick interval (e.g. 50ms, 1s)")
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to GreptimeDB")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the interactive terminal UI")
	simulateCmd.Flags().StringVar(&simOutFile, "out", "", "Write threat rows to this JSONL file")
	simulateCmd.Flags().StringVar(&simEventsFile, "events", "", "Write the replayable event log to this JSONL file (requires --out)")
	simulateCmd.Flags().StringVar(&simSQLite, "sqlite", "", "Archive the battle into this SQLite database")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin", ":8080", "Admin HTTP listen address (empty disables)")
	simulateCmd.Flags().BoolVar(&simTrace, "trace", false, "Log estimator updates (needs --log-level debug for per-update lines)")
	simulateCmd.Flags().BoolVar(&simScoring, "tracking-score", true, "Fill the tracking score with the weighted harness scorer")
}
