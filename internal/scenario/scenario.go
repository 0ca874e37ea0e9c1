package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"threatsim/internal/config"
	"threatsim/internal/enemy"
	"threatsim/internal/geom"
)

// Scenario describes a battle: the opponents, where the observer starts,
// and when enemies are retired from tracking.
type Scenario struct {
	Name        string        `yaml:"name,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Ticks       int64         `yaml:"ticks,omitempty"`
	Arena       *config.Arena `yaml:"arena,omitempty"`
	Observer    Observer      `yaml:"observer"`
	Bots        []Bot         `yaml:"bots"`
	RandomBots  int           `yaml:"random_bots,omitempty"`
	Retirements []Retirement  `yaml:"retirements,omitempty"`
}

// Observer is the starting state of the tracked player.
type Observer struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Energy float64 `yaml:"energy,omitempty"`
}

// Bot declares one opponent.
type Bot struct {
	Name         string         `yaml:"name"`
	Behavior     enemy.Behavior `yaml:"behavior"`
	X            float64        `yaml:"x"`
	Y            float64        `yaml:"y"`
	Heading      float64        `yaml:"heading,omitempty"`
	Velocity     float64        `yaml:"velocity,omitempty"`
	TurnRate     float64        `yaml:"turn_rate,omitempty"`
	Energy       float64        `yaml:"energy,omitempty"`
	FirePower    float64        `yaml:"fire_power,omitempty"`
	FireInterval int64          `yaml:"fire_interval,omitempty"`
	AimError     float64        `yaml:"aim_error,omitempty"`
}

// Retirement stops tracking an enemy at the given tick, as when the
// decision layer confirms it destroyed.
type Retirement struct {
	Enemy string `yaml:"enemy"`
	Tick  int64  `yaml:"tick"`
}

const defaultEnergy = 100

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Resolve returns the built-in scenario called name, or loads name as a
// file path when no built-in matches.
func Resolve(name string) (*Scenario, error) {
	if s, ok := BuiltIn()[name]; ok {
		return &s, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown scenario %q (built-in: %v)", name, Names())
	}
	return Load(name)
}

// Names lists the built-in scenarios in sorted order.
func Names() []string {
	var names []string
	for n := range BuiltIn() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the scenario for unusable bots.
func (s *Scenario) Validate() error {
	if s.RandomBots < 0 {
		return fmt.Errorf("random_bots must be >= 0, got %d", s.RandomBots)
	}
	if len(s.Bots) == 0 && s.RandomBots == 0 {
		return errors.New("no bots defined")
	}
	seen := make(map[string]bool, len(s.Bots))
	for i, b := range s.Bots {
		if b.Name == "" {
			return fmt.Errorf("bot %d: missing name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("bot %q: duplicate name", b.Name)
		}
		seen[b.Name] = true
		if b.Behavior != "" && !enemy.ValidBehavior(b.Behavior) {
			return fmt.Errorf("bot %q: unknown behavior %q", b.Name, b.Behavior)
		}
		if b.FirePower < 0 || b.FirePower > enemy.MaxFirePower {
			return fmt.Errorf("bot %q: fire_power must be within [0,%g]", b.Name, enemy.MaxFirePower)
		}
		if b.FireInterval < 0 {
			return fmt.Errorf("bot %q: fire_interval must be >= 0", b.Name)
		}
	}
	for _, r := range s.Retirements {
		if !seen[r.Enemy] {
			return fmt.Errorf("retirement of unknown bot %q", r.Enemy)
		}
	}
	return nil
}

// NewBots builds fresh engine bots from the declarations.
func (s *Scenario) NewBots() []*enemy.Bot {
	bots := make([]*enemy.Bot, 0, len(s.Bots))
	for _, b := range s.Bots {
		behavior := b.Behavior
		if behavior == "" {
			behavior = enemy.BehaviorPatrol
		}
		energy := b.Energy
		if energy == 0 {
			energy = defaultEnergy
		}
		bots = append(bots, &enemy.Bot{
			Name:         b.Name,
			Behavior:     behavior,
			Position:     geom.V(b.X, b.Y),
			Heading:      b.Heading,
			Velocity:     b.Velocity,
			TurnRate:     b.TurnRate,
			Energy:       energy,
			FirePower:    b.FirePower,
			FireInterval: b.FireInterval,
			AimError:     b.AimError,
		})
	}
	return bots
}

// RetiredAt returns the enemies to retire at tick.
func (s *Scenario) RetiredAt(tick int64) []string {
	var names []string
	for _, r := range s.Retirements {
		if r.Tick == tick {
			names = append(names, r.Enemy)
		}
	}
	return names
}

// ArenaOr returns the scenario's arena override, or def.
func (s *Scenario) ArenaOr(def config.Arena) config.Arena {
	if s.Arena != nil {
		return *s.Arena
	}
	return def
}
