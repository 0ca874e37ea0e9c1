package sim

import (
	"path/filepath"
	"testing"
	"time"

	"threatsim/internal/telemetry"
)

func tempSQLite(t *testing.T) *SQLiteWriter {
	t.Helper()
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "battle.db"))
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestSQLiteWriterThreats(t *testing.T) {
	w := tempSQLite(t)
	ts := time.Unix(0, 0)
	rows := []telemetry.ThreatRow{
		{BattleID: "b1", Enemy: "walls", Tick: 1, DangerScore: 4, Timestamp: ts},
		{BattleID: "b1", Enemy: "walls", Tick: 2, DangerScore: 7, Timestamp: ts},
		{BattleID: "b1", Enemy: "spin", Tick: 2, DangerScore: 0, Timestamp: ts},
		{BattleID: "other", Enemy: "walls", Tick: 1, DangerScore: 99, Timestamp: ts},
	}
	if err := w.WriteThreats(rows); err != nil {
		t.Fatalf("WriteThreats: %v", err)
	}
	got, err := w.DangerByEnemy("b1")
	if err != nil {
		t.Fatalf("DangerByEnemy: %v", err)
	}
	if len(got) != 2 || got["walls"] != 7 || got["spin"] != 0 {
		t.Fatalf("unexpected danger summary %v", got)
	}
}

func TestSQLiteWriterHitsAndStates(t *testing.T) {
	w := tempSQLite(t)
	ts := time.Unix(0, 0)
	if err := w.WriteHit(telemetry.HitRow{BattleID: "b1", Source: "walls", Tick: 3, Power: 1, Damage: 4, Timestamp: ts}); err != nil {
		t.Fatalf("WriteHit: %v", err)
	}
	for _, tracked := range []int{1, 2} {
		if err := w.WriteState(telemetry.BattleStateRow{BattleID: "b1", Tick: 3, Tracked: tracked, Timestamp: ts}); err != nil {
			t.Fatalf("WriteState: %v", err)
		}
	}

	var hits int
	if err := w.DB().QueryRow(`SELECT COUNT(*) FROM hits WHERE source = 'walls'`).Scan(&hits); err != nil {
		t.Fatalf("count hits: %v", err)
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
	var states, tracked int
	if err := w.DB().QueryRow(`SELECT COUNT(*), MAX(tracked) FROM battle_state`).Scan(&states, &tracked); err != nil {
		t.Fatalf("count states: %v", err)
	}
	if states != 1 || tracked != 2 {
		t.Fatalf("state upsert failed: %d rows, tracked %d", states, tracked)
	}
}
