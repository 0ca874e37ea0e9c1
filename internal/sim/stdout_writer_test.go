package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"threatsim/internal/config"
	"threatsim/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf, enemyColors: make(map[string]string)}
	row := telemetry.ThreatRow{BattleID: "b1", Enemy: "e1", DangerScore: 4, Timestamp: time.Unix(0, 0)}
	if err := w.WriteThreat(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var got telemetry.ThreatRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if got.Enemy != "e1" || got.DangerScore != 4 {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	cfg := config.Default()
	buf := &bytes.Buffer{}
	w := &StdoutWriter{cfg: &cfg, colorize: true, out: buf, enemyColors: make(map[string]string)}
	row := telemetry.ThreatRow{BattleID: "b1", Enemy: "walls", Tick: 3, DangerScore: 12, Seen: true, Timestamp: time.Unix(0, 0)}
	if err := w.WriteThreat(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Threat Configuration:") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, colorRed+"danger=12.00") {
		t.Fatalf("expected high danger in red: %q", output)
	}

	buf.Reset()
	if err := w.WriteHit(telemetry.HitRow{Source: "walls", Tick: 4, Power: 1, Damage: 4}); err != nil {
		t.Fatalf("hit write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Threat Configuration:") {
		t.Fatalf("overview printed more than once")
	}
	if !strings.Contains(buf.String(), "HIT") || !strings.Contains(buf.String(), "walls") {
		t.Fatalf("unexpected hit output %q", buf.String())
	}
}

func TestEnemyColorsAreStable(t *testing.T) {
	w := &StdoutWriter{enemyColors: make(map[string]string)}
	a := w.enemyColor("a")
	b := w.enemyColor("b")
	if a == b {
		t.Fatalf("expected distinct colors")
	}
	if w.enemyColor("a") != a {
		t.Fatalf("color changed for same enemy")
	}
}
