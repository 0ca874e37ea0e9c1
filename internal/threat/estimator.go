// Package threat maintains a per-enemy belief state from radar detections,
// hit notifications and the observer's own position.
//
// Everything here is synchronous and single-owner: the host calls into an
// Estimator (usually through a Registry) from its tick loop and reads the
// derived values back after the tick's maintenance pass.
package threat

import (
	"fmt"
	"log/slog"

	"threatsim/internal/config"
	"threatsim/internal/geom"
)

// Estimator tracks one enemy identity.
type Estimator struct {
	name string
	cfg  config.Threat
	log  *slog.Logger

	kin       Kinematics
	distance  float64
	repulsion geom.Vec
	danger    float64
	tracking  float64

	damage    []DamageEntry
	positions []PositionEntry
}

// NewEstimator starts tracking the enemy described by the first snapshot.
// log may be nil.
func NewEstimator(enemy EnemySnapshot, player PlayerSnapshot, cfg config.Threat, log *slog.Logger) (*Estimator, error) {
	if enemy.Name == "" {
		return nil, ErrEmptyIdentity
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	e := &Estimator{
		name: enemy.Name,
		cfg:  cfg,
		log:  log.With("enemy", enemy.Name),
	}
	e.applySnapshot(enemy, player)
	return e, nil
}

// UpdateFromRadar replaces the kinematics with a fresh detection, records
// the position and refreshes the observer-relative fields.
func (e *Estimator) UpdateFromRadar(enemy EnemySnapshot, player PlayerSnapshot) error {
	if enemy.Name != e.name {
		return fmt.Errorf("%w: %q applied to %q", ErrIdentityMismatch, enemy.Name, e.name)
	}
	e.applySnapshot(enemy, player)
	return nil
}

func (e *Estimator) applySnapshot(enemy EnemySnapshot, player PlayerSnapshot) {
	e.kin = snapshotKinematics(enemy)
	e.positions = append(e.positions, PositionEntry{Tick: enemy.Tick, Position: enemy.Position})
	e.log.Debug("enemy observed",
		"tick", enemy.Tick,
		"x", enemy.Position[0], "y", enemy.Position[1],
		"observer_x", player.Position[0], "observer_y", player.Position[1])
	e.UpdateFromPlayer(player)
}

// UpdateFromPlayer recomputes distance and repulsion against a new observer
// position, keeping the last known kinematics.
func (e *Estimator) UpdateFromPlayer(player PlayerSnapshot) {
	e.repulsion, e.distance = Repulsion(player.Position, e.kin.Position, e.cfg.RepulsionConstant, e.cfg.MinRepulsionDistance)
	e.log.Debug("repulsion updated",
		"tick", player.Tick,
		"distance", e.distance,
		"fx", e.repulsion[0], "fy", e.repulsion[1])
}

// RecordHit appends the damage of a projectile fired by this enemy.
// The danger score picks it up on the next Maintain.
func (e *Estimator) RecordHit(hit HitNotification) error {
	if hit.Power <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidPower, hit.Power)
	}
	e.damage = append(e.damage, DamageEntry{Tick: hit.Tick, Damage: HitDamage(hit.Power)})
	return nil
}

// Maintain is the once-per-tick pass: refresh against the observer, fold
// the damage window into the danger score, and age out old positions.
// The tick is taken from the player snapshot.
func (e *Estimator) Maintain(player PlayerSnapshot) {
	e.UpdateFromPlayer(player)
	e.damage = pruneDamage(e.damage, player.Tick, e.cfg.DamageWindowTicks)
	e.danger = meanDamage(e.damage)
	e.positions = prunePositions(e.positions, player.Tick, e.cfg.PositionWindowTicks)
}

func pruneDamage(entries []DamageEntry, now, window int64) []DamageEntry {
	kept := entries[:0]
	for _, d := range entries {
		if now-d.Tick <= window {
			kept = append(kept, d)
		}
	}
	return kept
}

func prunePositions(entries []PositionEntry, now, window int64) []PositionEntry {
	kept := entries[:0]
	for _, p := range entries {
		if now-p.Tick <= window {
			kept = append(kept, p)
		}
	}
	return kept
}

// Name returns the enemy identity.
func (e *Estimator) Name() string { return e.name }

// Kinematics returns the last observed kinematics.
func (e *Estimator) Kinematics() Kinematics { return e.kin }

// Seen reports whether the kinematics were refreshed by a detection at tick.
func (e *Estimator) Seen(tick int64) bool { return e.kin.Tick == tick }

// Distance returns the distance between the observer and the enemy.
func (e *Estimator) Distance() float64 { return e.distance }

// RepulsionVector returns the force pushing the observer away from the enemy.
func (e *Estimator) RepulsionVector() geom.Vec { return e.repulsion }

// DangerScore returns the mean damage dealt within the damage window.
func (e *Estimator) DangerScore() float64 { return e.danger }

// TrackingScore returns the value last stored by SetTrackingScore.
func (e *Estimator) TrackingScore() float64 { return e.tracking }

// SetTrackingScore stores a score computed by the decision module.
func (e *Estimator) SetTrackingScore(v float64) { e.tracking = v }

// DamageHistory returns a copy of the retained damage entries, oldest first.
func (e *Estimator) DamageHistory() []DamageEntry {
	return append([]DamageEntry(nil), e.damage...)
}

// PositionHistory returns a copy of the retained positions, oldest first.
func (e *Estimator) PositionHistory() []PositionEntry {
	return append([]PositionEntry(nil), e.positions...)
}

// State returns a snapshot of the estimator's outputs.
func (e *Estimator) State() State {
	return State{
		Name:          e.name,
		Kinematics:    e.kin,
		Distance:      e.distance,
		Repulsion:     e.repulsion,
		DangerScore:   e.danger,
		TrackingScore: e.tracking,
		DamageEntries: len(e.damage),
		PositionCount: len(e.positions),
	}
}
