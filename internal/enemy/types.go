package enemy

import (
	"threatsim/internal/geom"
)

// Behavior selects how a bot moves each tick.
type Behavior string

const (
	BehaviorStationary Behavior = "stationary"
	BehaviorPatrol     Behavior = "patrol"
	BehaviorCircle     Behavior = "circle"
	BehaviorRam        Behavior = "ram"
)

// ValidBehavior reports whether b is a known movement pattern.
func ValidBehavior(b Behavior) bool {
	switch b {
	case BehaviorStationary, BehaviorPatrol, BehaviorCircle, BehaviorRam:
		return true
	}
	return false
}

// Bot is one simulated opponent.
type Bot struct {
	Name         string
	Behavior     Behavior
	Position     geom.Vec
	Heading      float64
	Velocity     float64
	TurnRate     float64
	Energy       float64
	FirePower    float64
	FireInterval int64
	AimError     float64

	lastFire int64
	fired    bool
}

// Alive reports whether the bot still has energy to act.
func (b *Bot) Alive() bool { return b.Energy > 0 }

// Bullet is a projectile in flight.
type Bullet struct {
	Owner    string
	Power    float64
	Position geom.Vec
	Heading  float64
}

// Hit is a bullet that reached the observer.
type Hit struct {
	Tick   int64
	Source string
	Power  float64
}

// MaxFirePower keeps bullet speed positive and matches the usual upper
// bound for a single shot.
const MaxFirePower = 3.0

// BulletSpeed returns the distance a bullet of the given power covers per tick.
func BulletSpeed(power float64) float64 {
	return 20 - 3*power
}
