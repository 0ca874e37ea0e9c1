package sim

import (
	"math/rand"

	"threatsim/internal/enemy"
	"threatsim/internal/geom"
	"threatsim/internal/threat"
)

// Radar turns bot positions into detections as seen from the observer.
type Radar struct {
	Range   float64
	Dropout float64
	Noise   float64
	rand    *rand.Rand
}

// NewRadar creates a radar with the given range, per-bot dropout
// probability and positional noise (standard deviation in arena units).
func NewRadar(rng, dropout, noise float64, r *rand.Rand) *Radar {
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return &Radar{Range: rng, Dropout: dropout, Noise: noise, rand: r}
}

// Sweep returns one snapshot per bot detected this tick. Bots outside the
// range are never detected; bots inside are missed with probability Dropout.
func (r *Radar) Sweep(tick int64, observer geom.Vec, bots []*enemy.Bot) []threat.EnemySnapshot {
	var snaps []threat.EnemySnapshot
	for _, b := range bots {
		if r.Range > 0 && geom.Distance(observer, b.Position) > r.Range {
			continue
		}
		if r.Dropout > 0 && r.rand.Float64() < r.Dropout {
			continue
		}
		pos := b.Position
		if r.Noise > 0 {
			pos = pos.Add(geom.V(r.rand.NormFloat64()*r.Noise, r.rand.NormFloat64()*r.Noise))
		}
		velocity := b.Velocity
		if b.Behavior == enemy.BehaviorStationary || !b.Alive() {
			velocity = 0
		}
		snaps = append(snaps, threat.EnemySnapshot{
			Name:           b.Name,
			HeadingRadians: b.Heading,
			BearingRadians: geom.Bearing(observer, pos),
			Energy:         b.Energy,
			Velocity:       velocity,
			Position:       pos,
			Tick:           tick,
		})
	}
	return snaps
}
