package threat

import (
	"errors"

	"threatsim/internal/geom"
)

var (
	// ErrEmptyIdentity rejects a snapshot that carries no enemy name.
	ErrEmptyIdentity = errors.New("threat: snapshot has empty identity")
	// ErrIdentityMismatch is returned when a snapshot is applied to another enemy's estimator.
	ErrIdentityMismatch = errors.New("threat: snapshot identity does not match estimator")
	// ErrInvalidPower rejects hit notifications with non-positive projectile power.
	ErrInvalidPower = errors.New("threat: projectile power must be > 0")
	// ErrUnknownIdentity is returned for hits attributed to an enemy that is not tracked.
	ErrUnknownIdentity = errors.New("threat: unknown identity")
)

// EnemySnapshot is one radar detection of an enemy.
type EnemySnapshot struct {
	Name           string   `json:"name"`
	HeadingRadians float64  `json:"heading"`
	BearingRadians float64  `json:"bearing"`
	Energy         float64  `json:"energy"`
	Velocity       float64  `json:"velocity"`
	Position       geom.Vec `json:"position"`
	Tick           int64    `json:"tick"`
}

// PlayerSnapshot is the observer's own state for the current tick.
type PlayerSnapshot struct {
	Position geom.Vec `json:"position"`
	Tick     int64    `json:"tick"`
}

// HitNotification reports that the observer was struck by a projectile
// fired by Source.
type HitNotification struct {
	Tick   int64   `json:"tick"`
	Power  float64 `json:"power"`
	Source string  `json:"source"`
}

// Kinematics is the last observed state of an enemy. It is replaced
// wholesale on every detection.
type Kinematics struct {
	HeadingRadians float64  `json:"heading"`
	BearingRadians float64  `json:"bearing"`
	Energy         float64  `json:"energy"`
	Velocity       float64  `json:"velocity"`
	Position       geom.Vec `json:"position"`
	Tick           int64    `json:"tick"`
}

// DamageEntry is damage dealt to the observer by one hit.
type DamageEntry struct {
	Tick   int64   `json:"tick"`
	Damage float64 `json:"damage"`
}

// PositionEntry is one observed enemy position.
type PositionEntry struct {
	Tick     int64    `json:"tick"`
	Position geom.Vec `json:"position"`
}

// State is an immutable copy of an estimator's outputs.
type State struct {
	Name          string     `json:"name"`
	Kinematics    Kinematics `json:"kinematics"`
	Distance      float64    `json:"distance"`
	Repulsion     geom.Vec   `json:"repulsion"`
	DangerScore   float64    `json:"danger_score"`
	TrackingScore float64    `json:"tracking_score"`
	DamageEntries int        `json:"damage_entries"`
	PositionCount int        `json:"position_entries"`
}

func snapshotKinematics(s EnemySnapshot) Kinematics {
	return Kinematics{
		HeadingRadians: s.HeadingRadians,
		BearingRadians: s.BearingRadians,
		Energy:         s.Energy,
		Velocity:       s.Velocity,
		Position:       s.Position,
		Tick:           s.Tick,
	}
}
