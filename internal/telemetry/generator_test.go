package telemetry

import (
	"testing"
	"time"

	"threatsim/internal/geom"
	"threatsim/internal/threat"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestThreatRowFromState(t *testing.T) {
	gen := NewGenerator("battle-1").WithClock(fixedClock)
	s := threat.State{
		Name: "walls",
		Kinematics: threat.Kinematics{
			Position: geom.V(10, 20),
			Energy:   80,
			Tick:     4,
		},
		Distance:    30,
		Repulsion:   geom.V(-1, 2),
		DangerScore: 6,
	}

	row := gen.ThreatRow(s, 5)
	if row.BattleID != "battle-1" || row.Enemy != "walls" {
		t.Fatalf("unexpected tags: %+v", row)
	}
	if row.X != 10 || row.Y != 20 || row.RepulsionX != -1 || row.RepulsionY != 2 {
		t.Fatalf("unexpected vectors: %+v", row)
	}
	if row.Seen {
		t.Fatalf("row for stale kinematics marked as seen")
	}
	if row.LastSeenTick != 4 || !row.Timestamp.Equal(fixedClock()) {
		t.Fatalf("unexpected tick/ts: %+v", row)
	}
	if !gen.ThreatRow(s, 4).Seen {
		t.Fatalf("expected seen when kinematics tick matches")
	}
}

func TestHitRowCarriesDamage(t *testing.T) {
	gen := NewGenerator("b").WithClock(fixedClock)
	row := gen.HitRow(threat.HitNotification{Tick: 3, Power: 3, Source: "crazy"})
	if row.Damage != 16 {
		t.Fatalf("damage = %g, want 16", row.Damage)
	}
	if row.Hit() != (threat.HitNotification{Tick: 3, Power: 3, Source: "crazy"}) {
		t.Fatalf("hit round trip lost data: %+v", row.Hit())
	}
}

func TestObservationRowRebuildsSnapshots(t *testing.T) {
	gen := NewGenerator("b").WithClock(fixedClock)
	enemy := threat.EnemySnapshot{Name: "spin", HeadingRadians: 1, BearingRadians: 2, Energy: 50, Velocity: 8, Position: geom.V(1, 2), Tick: 9}
	player := threat.PlayerSnapshot{Position: geom.V(5, 5), Tick: 9}

	row := gen.ObservationRow(enemy, player)
	gotEnemy, gotPlayer := row.Snapshots()
	if gotEnemy != enemy || gotPlayer != player {
		t.Fatalf("snapshots differ: %+v %+v", gotEnemy, gotPlayer)
	}
}

func TestTableNames(t *testing.T) {
	if (ThreatRow{}).TableName() != "enemy_threat" {
		t.Fatalf("unexpected threat table %q", ThreatRow{}.TableName())
	}
	if (HitRow{}).TableName() == "" || (ObservationRow{}).TableName() == "" || (BattleStateRow{}).TableName() == "" {
		t.Fatalf("empty table name")
	}
}
