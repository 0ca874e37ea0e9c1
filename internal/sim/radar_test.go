package sim

import (
	"math"
	"math/rand"
	"testing"

	"threatsim/internal/enemy"
	"threatsim/internal/geom"
)

func TestRadarRange(t *testing.T) {
	bots := []*enemy.Bot{
		{Name: "near", Position: geom.V(100, 0), Energy: 10, Velocity: 5, Behavior: enemy.BehaviorPatrol},
		{Name: "far", Position: geom.V(1000, 0), Energy: 10},
	}
	r := NewRadar(500, 0, 0, nil)
	snaps := r.Sweep(7, geom.V(0, 0), bots)
	if len(snaps) != 1 || snaps[0].Name != "near" {
		t.Fatalf("unexpected detections %+v", snaps)
	}
	s := snaps[0]
	if s.Tick != 7 || s.Velocity != 5 || s.Position != geom.V(100, 0) {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.BearingRadians != 0 {
		t.Fatalf("bearing = %g, want 0", s.BearingRadians)
	}
}

func TestRadarDropout(t *testing.T) {
	bots := []*enemy.Bot{{Name: "a", Position: geom.V(1, 1), Energy: 1}}
	always := NewRadar(0, 1, 0, rand.New(rand.NewSource(1)))
	if got := always.Sweep(0, geom.V(0, 0), bots); len(got) != 0 {
		t.Fatalf("dropout 1 still detected %+v", got)
	}

	partial := NewRadar(0, 0.5, 0, rand.New(rand.NewSource(3)))
	seen := 0
	for tick := int64(0); tick < 1000; tick++ {
		seen += len(partial.Sweep(tick, geom.V(0, 0), bots))
	}
	if seen < 400 || seen > 600 {
		t.Fatalf("dropout 0.5 detected %d/1000", seen)
	}
}

func TestRadarNoiseIsBounded(t *testing.T) {
	bots := []*enemy.Bot{{Name: "a", Position: geom.V(300, 300), Energy: 1, Behavior: enemy.BehaviorStationary, Velocity: 3}}
	r := NewRadar(0, 0, 2, rand.New(rand.NewSource(9)))
	moved := false
	for tick := int64(0); tick < 50; tick++ {
		s := r.Sweep(tick, geom.V(0, 0), bots)[0]
		d := geom.Distance(s.Position, bots[0].Position)
		if d > 20 {
			t.Fatalf("noise offset %g too large", d)
		}
		if d > 0 {
			moved = true
		}
		if s.Velocity != 0 {
			t.Fatalf("stationary bot reported velocity %g", s.Velocity)
		}
		if math.Abs(s.BearingRadians-geom.Bearing(geom.V(0, 0), s.Position)) > 1e-12 {
			t.Fatalf("bearing not computed from reported position")
		}
	}
	if !moved {
		t.Fatalf("noise had no effect")
	}
}
