package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"threatsim/internal/config"
	"threatsim/internal/telemetry"
	"threatsim/internal/threat"
)

// ReplayLog re-drives a fresh threat registry from a battle event log and
// writes the recomputed threat rows to writer, one batch per state event.
// Retirements carried by a state event are applied before its maintenance
// pass. Live battles retire at the start of the tick, so hits attributed to a
// retired enemy earlier in the replayed tick are dropped with its estimator
// and the rows match. A log holding several battles back to back starts a
// fresh picture whenever the battle ID changes.
// It returns the number of ticks replayed.
func ReplayLog(r io.Reader, cfg config.Threat, writer ThreatWriter, opts ...threat.Option) (int, error) {
	dec := json.NewDecoder(r)
	registry := threat.NewRegistry(cfg, opts...)
	gen := telemetry.NewGenerator("")
	var ts time.Time
	gen.WithClock(func() time.Time { return ts })

	battle := ""
	enterBattle := func(id string) {
		if id == battle {
			return
		}
		if battle != "" {
			registry.Reset()
		}
		battle = id
	}

	ticks := 0
	for {
		var ev telemetry.EventRow
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return ticks, nil
			}
			return ticks, fmt.Errorf("decode event: %w", err)
		}
		switch ev.Kind {
		case telemetry.EventObservation:
			if ev.Observation == nil {
				return ticks, fmt.Errorf("observation event without payload")
			}
			enterBattle(ev.Observation.BattleID)
			enemy, player := ev.Observation.Snapshots()
			if _, err := registry.Observe(enemy, player); err != nil {
				return ticks, fmt.Errorf("tick %d: %w", enemy.Tick, err)
			}
		case telemetry.EventHit:
			if ev.Hit == nil {
				return ticks, fmt.Errorf("hit event without payload")
			}
			enterBattle(ev.Hit.BattleID)
			if err := registry.RecordHit(ev.Hit.Hit()); err != nil && !errors.Is(err, threat.ErrUnknownIdentity) {
				return ticks, fmt.Errorf("tick %d: %w", ev.Hit.Tick, err)
			}
		case telemetry.EventState:
			if ev.State == nil {
				return ticks, fmt.Errorf("state event without payload")
			}
			enterBattle(ev.State.BattleID)
			for _, name := range ev.State.Retired {
				registry.Retire(name)
			}
			player := ev.State.Player()
			registry.EndTick(player)
			gen.BattleID = ev.State.BattleID
			ts = ev.State.Timestamp
			var rows []telemetry.ThreatRow
			for _, st := range registry.States() {
				rows = append(rows, gen.ThreatRow(st, player.Tick))
			}
			if len(rows) > 0 {
				if err := writeThreats(writer, rows); err != nil {
					return ticks, err
				}
			}
			ticks++
		default:
			return ticks, fmt.Errorf("unknown event kind %q", ev.Kind)
		}
	}
}

// ReplayLogFile opens an event log and replays it.
func ReplayLogFile(path string, cfg config.Threat, writer ThreatWriter, opts ...threat.Option) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(f, cfg, writer, opts...)
}
