// Telemetry rows with greptime tags
package telemetry

import (
	"os"
	"time"
)

// ThreatRow is one estimator's state at the end of a tick.
type ThreatRow struct {
	BattleID      string    `json:"battle_id"`      // TAG
	Enemy         string    `json:"enemy"`          // TAG
	Tick          int64     `json:"tick"`           // FIELD
	X             float64   `json:"x"`              // FIELD
	Y             float64   `json:"y"`              // FIELD
	Heading       float64   `json:"heading"`        // FIELD
	Bearing       float64   `json:"bearing"`        // FIELD
	Velocity      float64   `json:"velocity"`       // FIELD
	Energy        float64   `json:"energy"`         // FIELD
	Distance      float64   `json:"distance"`       // FIELD
	RepulsionX    float64   `json:"repulsion_x"`    // FIELD
	RepulsionY    float64   `json:"repulsion_y"`    // FIELD
	DangerScore   float64   `json:"danger_score"`   // FIELD
	TrackingScore float64   `json:"tracking_score"` // FIELD
	Seen          bool      `json:"seen"`           // FIELD
	LastSeenTick  int64     `json:"last_seen_tick"` // FIELD
	DamageEntries int       `json:"damage_entries"` // FIELD
	Positions     int       `json:"positions"`      // FIELD
	Timestamp     time.Time `json:"ts"`             // TIME INDEX
}

// HitRow records a projectile that struck the observer.
type HitRow struct {
	BattleID  string    `json:"battle_id"` // TAG
	Source    string    `json:"source"`    // TAG
	Tick      int64     `json:"tick"`      // FIELD
	Power     float64   `json:"power"`     // FIELD
	Damage    float64   `json:"damage"`    // FIELD
	Timestamp time.Time `json:"ts"`        // TIME INDEX
}

// ObservationRow is one radar detection together with the observer
// position it was taken from.
type ObservationRow struct {
	BattleID  string    `json:"battle_id"` // TAG
	Enemy     string    `json:"enemy"`     // TAG
	Tick      int64     `json:"tick"`      // FIELD
	X         float64   `json:"x"`         // FIELD
	Y         float64   `json:"y"`         // FIELD
	Heading   float64   `json:"heading"`   // FIELD
	Bearing   float64   `json:"bearing"`   // FIELD
	Velocity  float64   `json:"velocity"`  // FIELD
	Energy    float64   `json:"energy"`    // FIELD
	ObserverX float64   `json:"observer_x"`
	ObserverY float64   `json:"observer_y"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// BattleStateRow captures per-tick host state. It is written after the
// tick's observations and hits.
type BattleStateRow struct {
	BattleID       string    `json:"battle_id"`
	Tick           int64     `json:"tick"`
	ObserverX      float64   `json:"observer_x"`
	ObserverY      float64   `json:"observer_y"`
	ObserverEnergy float64   `json:"observer_energy"`
	Tracked        int       `json:"tracked"`
	Visible        int       `json:"visible"`
	Hits           int       `json:"hits"`
	NetForceX      float64   `json:"net_force_x"`
	NetForceY      float64   `json:"net_force_y"`
	RadarDropout   float64   `json:"radar_dropout"`
	SensorNoise    float64   `json:"sensor_noise"`
	Retired        []string  `json:"retired,omitempty"`
	Timestamp      time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB or SQLite. They can be
// overridden with the GREPTIMEDB_*_TABLE environment variables.
var (
	ThreatTableName      = tableName("GREPTIMEDB_THREAT_TABLE", "enemy_threat")
	HitTableName         = tableName("GREPTIMEDB_HIT_TABLE", "observer_hits")
	ObservationTableName = tableName("GREPTIMEDB_OBSERVATION_TABLE", "radar_observations")
	StateTableName       = tableName("GREPTIMEDB_STATE_TABLE", "battle_state")
)

func (ThreatRow) TableName() string      { return ThreatTableName }
func (HitRow) TableName() string         { return HitTableName }
func (ObservationRow) TableName() string { return ObservationTableName }
func (BattleStateRow) TableName() string { return StateTableName }

// Event kinds in the replayable battle log.
const (
	EventObservation = "observation"
	EventHit         = "hit"
	EventState       = "state"
)

// EventRow is one line of the battle event log. Exactly one payload is set,
// matching Kind.
type EventRow struct {
	Kind        string          `json:"kind"`
	Observation *ObservationRow `json:"observation,omitempty"`
	Hit         *HitRow         `json:"hit,omitempty"`
	State       *BattleStateRow `json:"state,omitempty"`
}
