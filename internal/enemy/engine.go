package enemy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"threatsim/internal/config"
	"threatsim/internal/geom"
)

// ObserverRadius is the half-size of the observer's hull for hit tests.
const ObserverRadius = 18.0

// Engine maintains the bots of a battle and their bullets.
type Engine struct {
	arena   config.Arena
	Bots    []*Bot
	Bullets []*Bullet
	rand    *rand.Rand
}

// NewEngine creates an engine for the given bots.
func NewEngine(arena config.Arena, bots []*Bot, r *rand.Rand) *Engine {
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return &Engine{arena: arena, Bots: bots, rand: r}
}

// SpawnRandom adds count patrolling bots at random positions and returns
// them. Names are drawn from the engine's random source, so a seeded engine
// spawns the same identities on every run.
func (e *Engine) SpawnRandom(count int) ([]*Bot, error) {
	spawned := make([]*Bot, 0, count)
	for i := 0; i < count; i++ {
		name, err := e.randomName()
		if err != nil {
			return spawned, err
		}
		b := &Bot{
			Name:         name,
			Behavior:     BehaviorPatrol,
			Position:     geom.V(e.rand.Float64()*e.arena.Width, e.rand.Float64()*e.arena.Height),
			Heading:      e.rand.Float64() * 2 * math.Pi,
			Velocity:     4 + e.rand.Float64()*4,
			Energy:       100,
			FirePower:    1 + e.rand.Float64()*2,
			FireInterval: 10 + e.rand.Int63n(20),
			AimError:     0.05,
		}
		e.Bots = append(e.Bots, b)
		spawned = append(spawned, b)
	}
	return spawned, nil
}

func (e *Engine) randomName() (string, error) {
	for {
		id, err := uuid.NewRandomFromReader(e.rand)
		if err != nil {
			return "", fmt.Errorf("generate bot name: %w", err)
		}
		name := "bot-" + id.String()[:8]
		if _, taken := e.Bot(name); !taken {
			return name, nil
		}
	}
}

// Bot returns the bot with the given name.
func (e *Engine) Bot(name string) (*Bot, bool) {
	for _, b := range e.Bots {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Remove takes a bot out of the battle. Its bullets stay in flight.
func (e *Engine) Remove(name string) bool {
	for i, b := range e.Bots {
		if b.Name == name {
			e.Bots = append(e.Bots[:i], e.Bots[i+1:]...)
			return true
		}
	}
	return false
}

// Step advances the battle by one tick against an observer at target and
// returns the bullets that struck it. Bullets already in flight move first,
// then bots move, then bots fire.
func (e *Engine) Step(tick int64, target geom.Vec) []Hit {
	hits := e.moveBullets(tick, target)
	for _, b := range e.Bots {
		if !b.Alive() {
			continue
		}
		e.moveBot(b, target)
		e.fire(b, tick, target)
	}
	return hits
}

func (e *Engine) moveBullets(tick int64, target geom.Vec) []Hit {
	var hits []Hit
	kept := e.Bullets[:0]
	for _, bl := range e.Bullets {
		from := bl.Position
		bl.Position = geom.Project(from, bl.Heading, BulletSpeed(bl.Power))
		if segmentDistance(from, bl.Position, target) <= ObserverRadius {
			hits = append(hits, Hit{Tick: tick, Source: bl.Owner, Power: bl.Power})
			if owner, ok := e.Bot(bl.Owner); ok {
				owner.Energy += 3 * bl.Power
			}
			continue
		}
		if !e.inArena(bl.Position) {
			continue
		}
		kept = append(kept, bl)
	}
	e.Bullets = kept
	return hits
}

func (e *Engine) moveBot(b *Bot, target geom.Vec) {
	switch b.Behavior {
	case BehaviorStationary:
		return
	case BehaviorCircle:
		b.Heading += b.TurnRate
	case BehaviorRam:
		b.Heading = geom.Bearing(b.Position, target)
	}
	next := geom.Project(b.Position, b.Heading, b.Velocity)
	if next[0] < 0 || next[0] > e.arena.Width {
		b.Heading = math.Pi - b.Heading
	}
	if next[1] < 0 || next[1] > e.arena.Height {
		b.Heading = -b.Heading
	}
	b.Heading = geom.NormalizeAngle(b.Heading)
	b.Position = geom.Clamp(next, e.arena.Width, e.arena.Height)
}

func (e *Engine) fire(b *Bot, tick int64, target geom.Vec) {
	power := math.Min(b.FirePower, MaxFirePower)
	if power <= 0 || b.Energy < power {
		return
	}
	if b.fired && tick-b.lastFire < b.FireInterval {
		return
	}
	heading := geom.Bearing(b.Position, target)
	if b.AimError > 0 {
		heading += e.rand.NormFloat64() * b.AimError
	}
	e.Bullets = append(e.Bullets, &Bullet{Owner: b.Name, Power: power, Position: b.Position, Heading: heading})
	b.Energy -= power
	b.lastFire = tick
	b.fired = true
}

func (e *Engine) inArena(p geom.Vec) bool {
	return p[0] >= 0 && p[0] <= e.arena.Width && p[1] >= 0 && p[1] <= e.arena.Height
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(a, b, p geom.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return geom.Distance(a, p)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return geom.Distance(a.Add(ab.Mul(t)), p)
}
