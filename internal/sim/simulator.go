// Simulator driving a battle and feeding the threat registry
package sim

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"threatsim/internal/config"
	"threatsim/internal/enemy"
	"threatsim/internal/geom"
	"threatsim/internal/logging"
	"threatsim/internal/scenario"
	"threatsim/internal/telemetry"
	"threatsim/internal/threat"
)

const defaultObserverEnergy = 100

// Option customizes a Simulator.
type Option func(*Simulator)

// WithTraceLogger sets the logger that receives estimator trace lines.
func WithTraceLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.traceLog = l }
}

// WithTrackingScorer installs a tracking score function on the registry.
func WithTrackingScorer(fn threat.TrackingScorer) Option {
	return func(s *Simulator) { s.scorer = fn }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// Simulator runs the opponent engine and radar against a moving observer
// and keeps the threat registry up to date.
type Simulator struct {
	battleID     string
	cfg          *config.Config
	scenario     *scenario.Scenario
	arena        config.Arena
	registry     *threat.Registry
	engine       *enemy.Engine
	radar        *Radar
	gen          *telemetry.Generator
	writer       ThreatWriter
	tickInterval time.Duration
	traceLog     *slog.Logger
	scorer       threat.TrackingScorer
	now          func() time.Time

	observer       geom.Vec
	observerEnergy float64
	tick           int64

	latest      []telemetry.ThreatRow
	latestState telemetry.BattleStateRow
	subscribers map[int]chan []telemetry.ThreatRow
	nextSub     int
	pending     []string

	mu sync.Mutex
}

// NewSimulator builds a battle from the scenario. writer receives threat
// rows; if it also implements HitWriter, ObservationWriter or StateWriter
// it receives those rows too. An empty battleID is replaced by a UUID.
func NewSimulator(battleID string, cfg *config.Config, sc *scenario.Scenario, writer ThreatWriter, tickInterval time.Duration, opts ...Option) *Simulator {
	if battleID == "" {
		battleID = uuid.NewString()
	}
	s := &Simulator{
		battleID:     battleID,
		cfg:          cfg,
		scenario:     sc,
		arena:        sc.ArenaOr(cfg.Simulation.Arena),
		writer:       writer,
		tickInterval: tickInterval,
		now:          time.Now,
		subscribers:  make(map[int]chan []telemetry.ThreatRow),
	}
	for _, opt := range opts {
		opt(s)
	}
	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))
	s.gen = telemetry.NewGenerator(battleID).WithClock(s.now)
	s.engine = enemy.NewEngine(s.arena, sc.NewBots(), rng)
	if sc.RandomBots > 0 {
		if _, err := s.engine.SpawnRandom(sc.RandomBots); err != nil {
			slog.Error("spawn random bots", "battle_id", battleID, "err", err)
		}
	}
	s.radar = NewRadar(cfg.Simulation.RadarRange, cfg.Simulation.RadarDropout, cfg.Simulation.SensorNoise, rng)

	regOpts := []threat.Option{}
	if s.traceLog != nil {
		regOpts = append(regOpts, threat.WithLogger(s.traceLog))
	}
	if s.scorer != nil {
		regOpts = append(regOpts, threat.WithTrackingScorer(s.scorer))
	}
	s.registry = threat.NewRegistry(cfg.Threat, regOpts...)

	s.observer = geom.Clamp(geom.V(sc.Observer.X, sc.Observer.Y), s.arena.Width, s.arena.Height)
	s.observerEnergy = sc.Observer.Energy
	if s.observerEnergy <= 0 {
		s.observerEnergy = defaultObserverEnergy
	}
	return s
}

// BattleID returns the identifier stamped on every row.
func (s *Simulator) BattleID() string { return s.battleID }

// Run advances the battle every tick interval until ctx is done or the
// battle ends.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "battle_id", s.battleID, "scenario", s.scenario.Name, "tick_interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.Step(ctx) {
				log.Info("battle finished", "tick", s.Tick(), "observer_energy", s.ObserverEnergy())
				return
			}
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// Done reports whether the battle is over: the tick limit was reached or
// the observer ran out of energy.
func (s *Simulator) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done()
}

func (s *Simulator) done() bool {
	if s.observerEnergy <= 0 {
		return true
	}
	return s.scenario.Ticks > 0 && s.tick >= s.scenario.Ticks
}

// Step advances the battle by one tick and writes its rows. It returns
// false once the battle is over.
func (s *Simulator) Step(ctx context.Context) bool {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	if s.done() {
		s.mu.Unlock()
		return false
	}
	tick := s.tick

	retired := append(s.scenario.RetiredAt(tick), s.pending...)
	s.pending = nil
	for _, name := range retired {
		s.engine.Remove(name)
		if s.registry.Retire(name) {
			log.Info("enemy retired", "enemy", name, "tick", tick)
		}
	}

	s.moveObserver()
	hits := s.engine.Step(tick, s.observer)
	player := threat.PlayerSnapshot{Position: s.observer, Tick: tick}

	var observations []telemetry.ObservationRow
	for _, snap := range s.radar.Sweep(tick, s.observer, s.engine.Bots) {
		if _, err := s.registry.Observe(snap, player); err != nil {
			log.Error("observe failed", "enemy", snap.Name, "err", err)
			continue
		}
		observations = append(observations, s.gen.ObservationRow(snap, player))
	}

	var hitRows []telemetry.HitRow
	for _, h := range hits {
		note := threat.HitNotification{Tick: h.Tick, Power: h.Power, Source: h.Source}
		s.observerEnergy -= threat.HitDamage(h.Power)
		hitRows = append(hitRows, s.gen.HitRow(note))
		if err := s.registry.RecordHit(note); err != nil {
			if errors.Is(err, threat.ErrUnknownIdentity) {
				log.Debug("hit from untracked enemy", "enemy", h.Source, "tick", tick)
				continue
			}
			log.Error("record hit failed", "enemy", h.Source, "err", err)
		}
	}
	if s.observerEnergy < 0 {
		s.observerEnergy = 0
	}

	s.registry.EndTick(player)

	threats := make([]telemetry.ThreatRow, 0, s.registry.Len())
	for _, st := range s.registry.States() {
		threats = append(threats, s.gen.ThreatRow(st, tick))
	}
	net := s.registry.NetRepulsion()
	state := telemetry.BattleStateRow{
		BattleID:       s.battleID,
		Tick:           tick,
		ObserverX:      s.observer[0],
		ObserverY:      s.observer[1],
		ObserverEnergy: s.observerEnergy,
		Tracked:        len(threats),
		Visible:        len(observations),
		Hits:           len(hitRows),
		NetForceX:      net[0],
		NetForceY:      net[1],
		RadarDropout:   s.radar.Dropout,
		SensorNoise:    s.radar.Noise,
		Retired:        retired,
		Timestamp:      s.now().UTC(),
	}
	s.latest = threats
	s.latestState = state
	s.tick++
	s.publish(threats)
	s.mu.Unlock()

	s.emit(log, observations, hitRows, state, threats)
	return true
}

// moveObserver pushes the observer along the net repulsion of the last
// maintenance pass.
func (s *Simulator) moveObserver() {
	dir, ok := geom.Unit(s.registry.NetRepulsion())
	if !ok {
		return
	}
	next := s.observer.Add(dir.Mul(s.cfg.Simulation.ObserverSpeed))
	s.observer = geom.Clamp(next, s.arena.Width, s.arena.Height)
}

func (s *Simulator) emit(log *slog.Logger, observations []telemetry.ObservationRow, hits []telemetry.HitRow, state telemetry.BattleStateRow, threats []telemetry.ThreatRow) {
	if ow, ok := s.writer.(ObservationWriter); ok && len(observations) > 0 {
		if err := writeObservations(ow, observations); err != nil {
			log.Error("observation write failed", "err", err)
		}
	}
	if hw, ok := s.writer.(HitWriter); ok && len(hits) > 0 {
		if err := writeHits(hw, hits); err != nil {
			log.Error("hit write failed", "err", err)
		}
	}
	if sw, ok := s.writer.(StateWriter); ok {
		if err := sw.WriteState(state); err != nil {
			log.Error("state write failed", "err", err)
		}
	}
	if len(threats) > 0 {
		if err := writeThreats(s.writer, threats); err != nil {
			log.Error("threat write failed", "err", err)
		}
	}
}

func (s *Simulator) publish(rows []telemetry.ThreatRow) {
	for _, ch := range s.subscribers {
		select {
		case ch <- append([]telemetry.ThreatRow(nil), rows...):
		default:
		}
	}
}

// Subscribe returns a channel receiving the threat rows of every tick.
// Slow readers miss ticks. The returned func unsubscribes.
func (s *Simulator) Subscribe() (<-chan []telemetry.ThreatRow, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan []telemetry.ThreatRow, 4)
	s.subscribers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(ch)
		}
	}
}

// Tick returns the number of completed ticks.
func (s *Simulator) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Observer returns the observer position.
func (s *Simulator) Observer() geom.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// ObserverEnergy returns the observer's remaining energy.
func (s *Simulator) ObserverEnergy() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observerEnergy
}

// Retire queues a tracked enemy for removal at the start of the next tick.
// It reports false if no enemy by that name is known.
func (s *Simulator) Retire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, tracked := s.registry.Lookup(name)
	_, alive := s.engine.Bot(name)
	if !tracked && !alive {
		return false
	}
	for _, p := range s.pending {
		if p == name {
			return true
		}
	}
	s.pending = append(s.pending, name)
	return true
}

// Threats returns the threat rows of the last completed tick.
func (s *Simulator) Threats() []telemetry.ThreatRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]telemetry.ThreatRow(nil), s.latest...)
}

// Threat returns the last row for one enemy.
func (s *Simulator) Threat(name string) (telemetry.ThreatRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.latest {
		if r.Enemy == name {
			return r, true
		}
	}
	return telemetry.ThreatRow{}, false
}

// NearestThreats returns up to k tracked enemies closest to p.
func (s *Simulator) NearestThreats(p geom.Vec, k int) []telemetry.ThreatRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick := s.registry.Tick()
	var rows []telemetry.ThreatRow
	for _, st := range s.registry.Nearest(p, k) {
		rows = append(rows, s.gen.ThreatRow(st, tick))
	}
	return rows
}

// ThreatsWithin returns tracked enemies no further than radius from p,
// nearest first.
func (s *Simulator) ThreatsWithin(p geom.Vec, radius float64) []telemetry.ThreatRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick := s.registry.Tick()
	var rows []telemetry.ThreatRow
	for _, st := range s.registry.Within(p, radius) {
		rows = append(rows, s.gen.ThreatRow(st, tick))
	}
	return rows
}

// State returns the battle state row of the last completed tick.
func (s *Simulator) State() telemetry.BattleStateRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestState
}

// GetConfig returns the simulation configuration.
func (s *Simulator) GetConfig() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Scenario returns the battle description.
func (s *Simulator) Scenario() *scenario.Scenario {
	return s.scenario
}
