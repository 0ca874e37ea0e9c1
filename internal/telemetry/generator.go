package telemetry

import (
	"time"

	"threatsim/internal/geom"
	"threatsim/internal/threat"
)

// Generator turns estimator outputs and host events into rows for one battle.
type Generator struct {
	BattleID string
	now      func() time.Time
}

// NewGenerator creates a row generator for a given battle.
func NewGenerator(battleID string) *Generator {
	return &Generator{BattleID: battleID, now: time.Now}
}

// WithClock replaces the timestamp source, mainly for tests and replays.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// ThreatRow converts an estimator state taken at the end of tick.
func (g *Generator) ThreatRow(s threat.State, tick int64) ThreatRow {
	return ThreatRow{
		BattleID:      g.BattleID,
		Enemy:         s.Name,
		Tick:          tick,
		X:             s.Kinematics.Position[0],
		Y:             s.Kinematics.Position[1],
		Heading:       s.Kinematics.HeadingRadians,
		Bearing:       s.Kinematics.BearingRadians,
		Velocity:      s.Kinematics.Velocity,
		Energy:        s.Kinematics.Energy,
		Distance:      s.Distance,
		RepulsionX:    s.Repulsion[0],
		RepulsionY:    s.Repulsion[1],
		DangerScore:   s.DangerScore,
		TrackingScore: s.TrackingScore,
		Seen:          s.Kinematics.Tick == tick,
		LastSeenTick:  s.Kinematics.Tick,
		DamageEntries: s.DamageEntries,
		Positions:     s.PositionCount,
		Timestamp:     g.now().UTC(),
	}
}

// HitRow converts a hit notification.
func (g *Generator) HitRow(h threat.HitNotification) HitRow {
	return HitRow{
		BattleID:  g.BattleID,
		Source:    h.Source,
		Tick:      h.Tick,
		Power:     h.Power,
		Damage:    threat.HitDamage(h.Power),
		Timestamp: g.now().UTC(),
	}
}

// ObservationRow converts a radar detection and the observer state it was
// taken from.
func (g *Generator) ObservationRow(e threat.EnemySnapshot, p threat.PlayerSnapshot) ObservationRow {
	return ObservationRow{
		BattleID:  g.BattleID,
		Enemy:     e.Name,
		Tick:      e.Tick,
		X:         e.Position[0],
		Y:         e.Position[1],
		Heading:   e.HeadingRadians,
		Bearing:   e.BearingRadians,
		Velocity:  e.Velocity,
		Energy:    e.Energy,
		ObserverX: p.Position[0],
		ObserverY: p.Position[1],
		Timestamp: g.now().UTC(),
	}
}

// Snapshots rebuilds the estimator inputs recorded in an observation row.
func (o ObservationRow) Snapshots() (threat.EnemySnapshot, threat.PlayerSnapshot) {
	enemy := threat.EnemySnapshot{
		Name:           o.Enemy,
		HeadingRadians: o.Heading,
		BearingRadians: o.Bearing,
		Energy:         o.Energy,
		Velocity:       o.Velocity,
		Position:       geom.V(o.X, o.Y),
		Tick:           o.Tick,
	}
	return enemy, threat.PlayerSnapshot{Position: geom.V(o.ObserverX, o.ObserverY), Tick: o.Tick}
}

// Hit rebuilds the hit notification recorded in a hit row.
func (h HitRow) Hit() threat.HitNotification {
	return threat.HitNotification{Tick: h.Tick, Power: h.Power, Source: h.Source}
}

// Player rebuilds the observer snapshot at the end of the row's tick.
func (s BattleStateRow) Player() threat.PlayerSnapshot {
	return threat.PlayerSnapshot{Position: geom.V(s.ObserverX, s.ObserverY), Tick: s.Tick}
}
