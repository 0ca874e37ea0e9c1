package main

import (
	"os"

	"threatsim/internal/config"
	"threatsim/internal/sim"
)

type writerOptions struct {
	PrintOnly  bool
	Colorize   bool
	TUI        bool
	OutFile    string
	EventsFile string
	SQLitePath string
}

// newWriters sets up the battle sinks based on flags and env vars. It
// returns the combined writer, the TUI writer if one was started, and a
// cleanup function closing every resource in reverse order.
func newWriters(cfg *config.Config, opts writerOptions) (sim.ThreatWriter, *sim.TUIWriter, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	base, tui, err := baseWriter(cfg, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if tui != nil {
		closers = append(closers, tui.Close)
	}

	writers := []sim.ThreatWriter{base}
	if opts.OutFile != "" {
		fw, err := sim.NewFileWriter(opts.OutFile, opts.EventsFile)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, fw.Close)
		writers = append(writers, fw)
	}
	if opts.SQLitePath != "" {
		sw, err := sim.NewSQLiteWriter(opts.SQLitePath)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, sw.Close)
		writers = append(writers, sw)
	}
	if len(writers) == 1 {
		return base, tui, cleanup, nil
	}
	return sim.NewMultiWriter(writers...), tui, cleanup, nil
}

// baseWriter chooses the primary sink: the TUI, STDOUT or GreptimeDB.
func baseWriter(cfg *config.Config, opts writerOptions) (sim.ThreatWriter, *sim.TUIWriter, error) {
	if opts.TUI {
		tw := sim.NewTUIWriter(cfg)
		return tw, tw, nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.PrintOnly || endpoint == "" {
		return sim.NewStdoutWriter(cfg, opts.Colorize), nil, nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return nil, nil, err
	}
	return w.WithLogger(logger), nil, nil
}
