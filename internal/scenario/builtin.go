package scenario

import "math"

// BuiltIn returns the predefined battles.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"duel": {
			Name:        "Duel",
			Description: "One circling gunner against the observer in the middle of the arena.",
			Observer:    Observer{X: 400, Y: 300, Energy: 100},
			Bots: []Bot{
				{Name: "spinner", Behavior: "circle", X: 600, Y: 300, Heading: math.Pi / 2, Velocity: 6, TurnRate: 0.05, FirePower: 2, FireInterval: 12, AimError: 0.05},
			},
		},
		"melee": {
			Name:        "Melee",
			Description: "Four opponents with different movement patterns. The rammer is retired once it has closed in.",
			Ticks:       2000,
			Observer:    Observer{X: 400, Y: 300, Energy: 100},
			Bots: []Bot{
				{Name: "walls", Behavior: "patrol", X: 20, Y: 20, Heading: 0, Velocity: 8, FirePower: 1, FireInterval: 8, AimError: 0.1},
				{Name: "tracker", Behavior: "circle", X: 700, Y: 500, Velocity: 5, TurnRate: -0.03, FirePower: 2, FireInterval: 15, AimError: 0.05},
				{Name: "sitting-duck", Behavior: "stationary", X: 100, Y: 500, FirePower: 0.5, FireInterval: 5, AimError: 0.2},
				{Name: "rammer", Behavior: "ram", X: 780, Y: 40, Velocity: 4, FirePower: 3, FireInterval: 25},
			},
			Retirements: []Retirement{{Enemy: "rammer", Tick: 600}},
		},
		"ambush": {
			Name:        "Ambush",
			Description: "Three stationary heavy gunners in the far corner, opening fire at long range on an observer that starts next to the opposite corner.",
			Ticks:       1500,
			Observer:    Observer{X: 100, Y: 100, Energy: 100},
			Bots: []Bot{
				{Name: "nest-1", Behavior: "stationary", X: 760, Y: 560, FirePower: 3, FireInterval: 30, AimError: 0.02},
				{Name: "nest-2", Behavior: "stationary", X: 700, Y: 580, FirePower: 3, FireInterval: 35, AimError: 0.02},
				{Name: "nest-3", Behavior: "stationary", X: 780, Y: 480, FirePower: 3, FireInterval: 40, AimError: 0.02},
			},
		},
		"swarm": {
			Name:        "Swarm",
			Description: "Six patrolling bots spawned at seeded random positions with generated names.",
			Ticks:       1500,
			Observer:    Observer{X: 400, Y: 300, Energy: 100},
			RandomBots:  6,
		},
	}
}
