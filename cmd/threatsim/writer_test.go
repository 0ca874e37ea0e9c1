package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"threatsim/internal/config"
	"threatsim/internal/sim"
	"threatsim/internal/telemetry"
)

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func TestNewWritersPrintOnly(t *testing.T) {
	w, tui, cleanup, err := newWriters(testConfig(), writerOptions{PrintOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if tui != nil {
		t.Fatalf("TUI should not start in print-only mode")
	}
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, _, cleanup, err := newWriters(testConfig(), writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", w)
	}
}

func TestNewWritersFileAndSQLite(t *testing.T) {
	dir := t.TempDir()
	threats := filepath.Join(dir, "threats.jsonl")
	events := filepath.Join(dir, "events.jsonl")
	w, _, cleanup, err := newWriters(testConfig(), writerOptions{
		PrintOnly:  true,
		OutFile:    threats,
		EventsFile: events,
		SQLitePath: filepath.Join(dir, "battle.db"),
	})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	now := time.Unix(0, 0).UTC()
	if err := w.WriteThreat(telemetry.ThreatRow{BattleID: "b", Enemy: "walls", Timestamp: now}); err != nil {
		t.Fatalf("write threat: %v", err)
	}
	sw, ok := w.(sim.StateWriter)
	if !ok {
		t.Fatalf("combined writer does not implement StateWriter")
	}
	if err := sw.WriteState(telemetry.BattleStateRow{BattleID: "b", Tick: 1, Timestamp: now}); err != nil {
		t.Fatalf("write state: %v", err)
	}
	cleanup()

	for _, path := range []string{threats, events} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", path)
		}
	}
}

func TestNewWritersBadPath(t *testing.T) {
	_, _, _, err := newWriters(testConfig(), writerOptions{PrintOnly: true, OutFile: filepath.Join(t.TempDir(), "missing", "threats.jsonl")})
	if err == nil {
		t.Fatalf("expected error for unwritable output path")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Threat.DamageWindowTicks != 64 || cfg.Simulation.Scenario != "duel" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestScenariosCommand(t *testing.T) {
	var buf bytes.Buffer
	scenariosCmd.SetOut(&buf)
	defer scenariosCmd.SetOut(nil)
	if err := scenariosCmd.RunE(scenariosCmd, nil); err != nil {
		t.Fatalf("scenarios: %v", err)
	}
	out := buf.String()
	for _, name := range []string{"ambush", "duel", "melee", "swarm"} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing scenario %s in:\n%s", name, out)
		}
	}
}
