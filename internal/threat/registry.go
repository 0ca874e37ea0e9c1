package threat

import (
	"fmt"
	"log/slog"

	"threatsim/internal/config"
	"threatsim/internal/geom"
)

// Handle addresses an estimator inside a Registry. Handles are never reused
// within a battle.
type Handle int

// TrackingScorer fills the tracking score slot. It is supplied by the
// decision module; the registry only calls it after maintenance.
type TrackingScorer func(State, config.TrackingWeights) float64

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the trace sink handed to every estimator.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithTrackingScorer installs the decision module's scoring function.
func WithTrackingScorer(fn TrackingScorer) Option {
	return func(r *Registry) { r.scorer = fn }
}

// Registry owns one Estimator per enemy identity. Estimators live in an
// arena indexed by Handle; retired slots stay nil.
type Registry struct {
	cfg     config.Threat
	log     *slog.Logger
	scorer  TrackingScorer
	arena   []*Estimator
	handles map[string]Handle
	index   *spatialIndex
	tick    int64
}

// NewRegistry creates an empty registry using cfg for every estimator.
func NewRegistry(cfg config.Threat, opts ...Option) *Registry {
	r := &Registry{
		cfg:     cfg,
		handles: make(map[string]Handle),
		index:   newSpatialIndex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	return r
}

// Config returns the configuration shared by all estimators.
func (r *Registry) Config() config.Threat { return r.cfg }

// Observe routes a radar detection to the enemy's estimator, creating it on
// first sighting.
func (r *Registry) Observe(enemy EnemySnapshot, player PlayerSnapshot) (Handle, error) {
	if h, ok := r.handles[enemy.Name]; ok {
		return h, r.arena[h].UpdateFromRadar(enemy, player)
	}
	e, err := NewEstimator(enemy, player, r.cfg, r.log)
	if err != nil {
		return -1, err
	}
	h := Handle(len(r.arena))
	r.arena = append(r.arena, e)
	r.handles[enemy.Name] = h
	r.log.Info("tracking new enemy", "enemy", enemy.Name, "handle", int(h), "tick", enemy.Tick)
	return h, nil
}

// RecordHit attributes a hit to the estimator named by hit.Source.
func (r *Registry) RecordHit(hit HitNotification) error {
	h, ok := r.handles[hit.Source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIdentity, hit.Source)
	}
	return r.arena[h].RecordHit(hit)
}

// EndTick runs maintenance once on every tracked estimator, then the
// tracking scorer if one is installed. Call it after all of the tick's
// detections and hits were delivered.
func (r *Registry) EndTick(player PlayerSnapshot) {
	r.tick = player.Tick
	r.index.reset()
	for h, e := range r.arena {
		if e == nil {
			continue
		}
		e.Maintain(player)
		if r.scorer != nil {
			e.SetTrackingScore(r.scorer(e.State(), r.cfg.TrackingWeights))
		}
		r.index.insert(Handle(h), e.kin.Position)
	}
}

// Tick returns the tick of the last maintenance pass.
func (r *Registry) Tick() int64 { return r.tick }

// Retire stops tracking an enemy, e.g. once it is confirmed destroyed.
func (r *Registry) Retire(name string) bool {
	h, ok := r.handles[name]
	if !ok {
		return false
	}
	r.arena[h] = nil
	delete(r.handles, name)
	r.index.remove(h)
	r.log.Info("retired enemy", "enemy", name, "handle", int(h))
	return true
}

// Reset drops every estimator, for the start of a new battle.
func (r *Registry) Reset() {
	r.arena = nil
	r.handles = make(map[string]Handle)
	r.index.reset()
	r.tick = 0
}

// Lookup returns the handle of a tracked enemy.
func (r *Registry) Lookup(name string) (Handle, bool) {
	h, ok := r.handles[name]
	return h, ok
}

// Get returns the estimator for h, or nil if h is unknown or retired.
func (r *Registry) Get(h Handle) *Estimator {
	if h < 0 || int(h) >= len(r.arena) {
		return nil
	}
	return r.arena[h]
}

// ByName returns the estimator tracking name.
func (r *Registry) ByName(name string) (*Estimator, bool) {
	h, ok := r.handles[name]
	if !ok {
		return nil, false
	}
	return r.arena[h], true
}

// Len returns the number of tracked enemies.
func (r *Registry) Len() int { return len(r.handles) }

// Each visits tracked estimators in handle order.
func (r *Registry) Each(fn func(Handle, *Estimator)) {
	for h, e := range r.arena {
		if e != nil {
			fn(Handle(h), e)
		}
	}
}

// States returns the outputs of every tracked estimator in handle order.
func (r *Registry) States() []State {
	states := make([]State, 0, len(r.handles))
	r.Each(func(_ Handle, e *Estimator) {
		states = append(states, e.State())
	})
	return states
}

// NetRepulsion sums the repulsion vectors of all tracked enemies.
func (r *Registry) NetRepulsion() geom.Vec {
	var sum geom.Vec
	r.Each(func(_ Handle, e *Estimator) {
		sum = sum.Add(e.repulsion)
	})
	return sum
}
