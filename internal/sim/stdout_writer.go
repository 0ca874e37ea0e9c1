// Writer implementation printing battle rows to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"threatsim/internal/config"
	"threatsim/internal/telemetry"
)

// StdoutWriter prints rows to STDOUT, either as JSON lines or colorized
// for a human reader.
type StdoutWriter struct {
	cfg         *config.Config
	out         io.Writer
	colorize    bool
	once        sync.Once
	enemyColors map[string]string
	colorIdx    int
	mu          sync.Mutex
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.Config, colorize bool) *StdoutWriter {
	return &StdoutWriter{
		cfg:         cfg,
		out:         os.Stdout,
		colorize:    colorize,
		enemyColors: make(map[string]string),
	}
}

func (w *StdoutWriter) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteThreat outputs a single threat row.
func (w *StdoutWriter) WriteThreat(row telemetry.ThreatRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	w.printThreat(row)
	return nil
}

// WriteThreats outputs multiple threat rows.
func (w *StdoutWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	for _, r := range rows {
		if err := w.WriteThreat(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteHit prints a hit on the observer.
func (w *StdoutWriter) WriteHit(row telemetry.HitRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	w.printHit(row)
	return nil
}

// WriteState prints per-tick battle state.
func (w *StdoutWriter) WriteState(row telemetry.BattleStateRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	w.printState(row)
	return nil
}
