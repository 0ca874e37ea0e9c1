// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// TrackingWeights are the knobs a decision module may use to rank threats.
// The estimator never evaluates them itself.
type TrackingWeights struct {
	Distance float64 `yaml:"distance" json:"distance"`
	Danger   float64 `yaml:"danger" json:"danger"`
	Energy   float64 `yaml:"energy" json:"energy"`
}

// Threat configures every threat estimator. It is read-only once loaded.
type Threat struct {
	DamageWindowTicks    int64           `yaml:"damage_window_ticks" json:"damage_window_ticks"`
	PositionWindowTicks  int64           `yaml:"position_window_ticks" json:"position_window_ticks"`
	RepulsionConstant    float64         `yaml:"repulsion_constant" json:"repulsion_constant"`
	MinRepulsionDistance float64         `yaml:"min_repulsion_distance" json:"min_repulsion_distance"`
	TrackingWeights      TrackingWeights `yaml:"tracking_weights" json:"tracking_weights"`
}

// Arena is the battlefield rectangle, origin at the bottom-left corner.
type Arena struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Simulation configures the battle host that feeds the estimators.
type Simulation struct {
	Arena         Arena   `yaml:"arena" json:"arena"`
	RadarRange    float64 `yaml:"radar_range" json:"radar_range"`
	RadarDropout  float64 `yaml:"radar_dropout" json:"radar_dropout"`
	SensorNoise   float64 `yaml:"sensor_noise" json:"sensor_noise"`
	ObserverSpeed float64 `yaml:"observer_speed" json:"observer_speed"`
	Seed          int64   `yaml:"seed" json:"seed"`
	Scenario      string  `yaml:"scenario" json:"scenario"`
}

// Config is the root configuration.
type Config struct {
	Threat     Threat     `yaml:"threat" json:"threat"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Threat: Threat{
			DamageWindowTicks:    16 * 4,
			PositionWindowTicks:  32,
			RepulsionConstant:    500000,
			MinRepulsionDistance: 1,
			TrackingWeights:      TrackingWeights{Distance: 1},
		},
		Simulation: Simulation{
			Arena:         Arena{Width: 800, Height: 600},
			RadarRange:    1200,
			RadarDropout:  0.1,
			SensorNoise:   0,
			ObserverSpeed: 8,
			Seed:          1,
			Scenario:      "duel",
		},
	}
}

// Load loads YAML config and validates it against a CUE schema.
// An empty cueSchemaPath selects the embedded schema. Fields absent from
// the file keep their Default values.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema := embeddedSchema
	if cueSchemaPath != "" {
		if schema, err = os.ReadFile(cueSchemaPath); err != nil {
			return nil, fmt.Errorf("cannot read CUE schema: %w", err)
		}
	}
	if err := ValidateWithCue(configPath, data, schema); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration", "path", configPath, "config", fmt.Sprintf("%+v", cfg))
	return &cfg, nil
}

// Validate checks value ranges that the schema cannot express on its own
// and that also apply to programmatically built configs.
func (c Config) Validate() error {
	t := c.Threat
	if t.DamageWindowTicks < 0 {
		return fmt.Errorf("threat.damage_window_ticks must be >= 0, got %d", t.DamageWindowTicks)
	}
	if t.PositionWindowTicks < 0 {
		return fmt.Errorf("threat.position_window_ticks must be >= 0, got %d", t.PositionWindowTicks)
	}
	if t.RepulsionConstant <= 0 {
		return fmt.Errorf("threat.repulsion_constant must be > 0, got %g", t.RepulsionConstant)
	}
	if t.MinRepulsionDistance <= 0 {
		return fmt.Errorf("threat.min_repulsion_distance must be > 0, got %g", t.MinRepulsionDistance)
	}
	s := c.Simulation
	if s.Arena.Width <= 0 || s.Arena.Height <= 0 {
		return fmt.Errorf("simulation.arena must have a positive size, got %gx%g", s.Arena.Width, s.Arena.Height)
	}
	if s.RadarDropout < 0 || s.RadarDropout > 1 {
		return fmt.Errorf("simulation.radar_dropout must be within [0,1], got %g", s.RadarDropout)
	}
	if s.RadarRange <= 0 {
		return fmt.Errorf("simulation.radar_range must be > 0, got %g", s.RadarRange)
	}
	return nil
}
