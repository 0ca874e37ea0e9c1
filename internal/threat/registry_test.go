package threat

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"threatsim/internal/config"
	"threatsim/internal/geom"
)

func TestRegistryCreatesOnFirstSighting(t *testing.T) {
	r := NewRegistry(testConfig())
	h1, err := r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	h2, err := r.Observe(snapshot("a", 1, 5, 0), player(1, 10, 0))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("same identity got two handles: %d, %d", h1, h2)
	}
	h3, _ := r.Observe(snapshot("b", 1, 0, 5), player(1, 10, 0))
	if h3 == h1 {
		t.Fatalf("distinct identities share a handle")
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	e, ok := r.ByName("a")
	if !ok || e.Kinematics().Tick != 1 || len(e.PositionHistory()) != 2 {
		t.Fatalf("estimator a not refreshed: %+v", e.State())
	}
	if r.Get(h3).Name() != "b" {
		t.Fatalf("handle lookup returned wrong estimator")
	}
}

func TestRegistryRejectsEmptyIdentity(t *testing.T) {
	r := NewRegistry(testConfig())
	if _, err := r.Observe(snapshot("", 0, 0, 0), player(0, 1, 1)); !errors.Is(err, ErrEmptyIdentity) {
		t.Fatalf("err = %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("estimator created for empty identity")
	}
}

func TestRegistryRecordHit(t *testing.T) {
	r := NewRegistry(testConfig())
	if err := r.RecordHit(HitNotification{Tick: 0, Power: 1, Source: "ghost"}); !errors.Is(err, ErrUnknownIdentity) {
		t.Fatalf("err = %v, want ErrUnknownIdentity", err)
	}
	_, _ = r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	if err := r.RecordHit(HitNotification{Tick: 0, Power: 2, Source: "a"}); err != nil {
		t.Fatalf("RecordHit: %v", err)
	}
	r.EndTick(player(0, 10, 0))
	e, _ := r.ByName("a")
	if e.DangerScore() != 10 {
		t.Fatalf("danger = %g, want 10", e.DangerScore())
	}
}

func TestRegistryHitBeforeObservationInSameTick(t *testing.T) {
	r := NewRegistry(testConfig())
	_, _ = r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))

	// tick 1: hit arrives first, then the detection
	_ = r.RecordHit(HitNotification{Tick: 1, Power: 1, Source: "a"})
	_, _ = r.Observe(snapshot("a", 1, 2, 0), player(1, 10, 0))
	r.EndTick(player(1, 10, 0))

	e, _ := r.ByName("a")
	if e.DangerScore() != 4 || e.Distance() != 8 || !e.Seen(1) {
		t.Fatalf("unexpected state %+v", e.State())
	}
}

func TestRegistryEndTickRefreshesStaleEstimators(t *testing.T) {
	r := NewRegistry(testConfig())
	_, _ = r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	_, _ = r.Observe(snapshot("b", 0, 100, 0), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))

	_, _ = r.Observe(snapshot("a", 1, 0, 0), player(1, 50, 0))
	r.EndTick(player(1, 50, 0))

	b, _ := r.ByName("b")
	if b.Seen(1) {
		t.Fatalf("b should be stale at tick 1")
	}
	if b.Distance() != 50 {
		t.Fatalf("stale estimator distance = %g, want 50", b.Distance())
	}
	if len(b.PositionHistory()) != 1 {
		t.Fatalf("stale estimator history grew")
	}
}

func TestRegistryRetireAndReset(t *testing.T) {
	r := NewRegistry(testConfig())
	ha, _ := r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	_, _ = r.Observe(snapshot("b", 0, 20, 0), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))
	if !r.Retire("a") {
		t.Fatalf("retire a failed")
	}
	if r.Retire("a") {
		t.Fatalf("second retire should report false")
	}
	if r.Get(ha) != nil || r.Len() != 1 {
		t.Fatalf("a still tracked")
	}
	if got := r.Nearest(geom.V(0, 0), 5); len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("spatial index still holds retired enemy: %+v", got)
	}
	hb2, _ := r.Observe(snapshot("a", 1, 0, 0), player(1, 10, 0))
	if hb2 == ha {
		t.Fatalf("handle reused after retirement")
	}
	r.Reset()
	if r.Len() != 0 || len(r.States()) != 0 {
		t.Fatalf("reset left estimators behind")
	}
}

func TestRegistryNetRepulsion(t *testing.T) {
	r := NewRegistry(testConfig())
	_, _ = r.Observe(snapshot("left", 0, 0, 0), player(0, 10, 0))
	_, _ = r.Observe(snapshot("right", 0, 20, 0), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))
	net := r.NetRepulsion()
	if math.Abs(net[0]) > 1e-9 || math.Abs(net[1]) > 1e-9 {
		t.Fatalf("symmetric threats should cancel, got %v", net)
	}
	_, _ = r.Observe(snapshot("below", 0, 10, -10), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))
	net = r.NetRepulsion()
	if net[1] <= 0 {
		t.Fatalf("expected push away from enemy below, got %v", net)
	}
}

func TestRegistryTrackingScorer(t *testing.T) {
	cfg := testConfig()
	cfg.TrackingWeights = config.TrackingWeights{Distance: 2}
	var calls int
	scorer := func(s State, w config.TrackingWeights) float64 {
		calls++
		return w.Distance * s.Distance
	}
	r := NewRegistry(cfg, WithTrackingScorer(scorer))
	_, _ = r.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	r.EndTick(player(0, 10, 0))
	e, _ := r.ByName("a")
	if calls != 1 || e.TrackingScore() != 20 {
		t.Fatalf("calls=%d score=%g", calls, e.TrackingScore())
	}

	plain := NewRegistry(cfg)
	_, _ = plain.Observe(snapshot("a", 0, 0, 0), player(0, 10, 0))
	plain.EndTick(player(0, 10, 0))
	if e, _ := plain.ByName("a"); e.TrackingScore() != 0 {
		t.Fatalf("tracking score computed without a scorer")
	}
}

func TestRegistrySpatialQueries(t *testing.T) {
	r := NewRegistry(testConfig())
	positions := map[string]geom.Vec{
		"near": geom.V(10, 0),
		"mid":  geom.V(0, 50),
		"far":  geom.V(300, 300),
	}
	for name, p := range positions {
		_, _ = r.Observe(snapshot(name, 0, p[0], p[1]), player(0, 0, 0))
	}
	r.EndTick(player(0, 0, 0))

	nearest := r.Nearest(geom.V(0, 0), 2)
	if len(nearest) != 2 || nearest[0].Name != "near" || nearest[1].Name != "mid" {
		t.Fatalf("nearest = %+v", nearest)
	}
	within := r.Within(geom.V(0, 0), 60)
	if len(within) != 2 {
		t.Fatalf("within = %+v", within)
	}
	if got := r.Within(geom.V(0, 0), 0); len(got) != 0 {
		t.Fatalf("zero radius should match nothing")
	}
	if got := r.Nearest(geom.V(0, 0), 10); len(got) != 3 {
		t.Fatalf("nearest with large k = %d", len(got))
	}
}

func TestRegistryTraceLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRegistry(testConfig(), WithLogger(log))
	_, _ = r.Observe(snapshot("walls", 0, 0, 0), player(0, 10, 0))
	out := buf.String()
	for _, want := range []string{"tracking new enemy", "enemy observed", "repulsion updated", "enemy=walls"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace output missing %q: %s", want, out)
		}
	}
}
