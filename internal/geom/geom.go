// Package geom holds the planar geometry used by the estimator and the battle host.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a point or displacement in arena coordinates.
type Vec = mgl64.Vec2

// V builds a Vec from its components.
func V(x, y float64) Vec {
	return Vec{x, y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// Unit returns v scaled to length one. ok is false for the zero vector,
// in which case the zero vector is returned instead of NaNs.
func Unit(v Vec) (u Vec, ok bool) {
	l := v.Len()
	if l == 0 {
		return Vec{}, false
	}
	return v.Mul(1 / l), true
}

// Bearing returns the angle in radians of the direction from -> to,
// measured counter-clockwise from the +x axis.
func Bearing(from, to Vec) float64 {
	return math.Atan2(to[1]-from[1], to[0]-from[0])
}

// Project returns the point at dist along bearing from origin.
func Project(origin Vec, bearing, dist float64) Vec {
	return Vec{
		origin[0] + dist*math.Cos(bearing),
		origin[1] + dist*math.Sin(bearing),
	}
}

// NormalizeAngle wraps a into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Clamp bounds p to the rectangle [0,w]x[0,h].
func Clamp(p Vec, w, h float64) Vec {
	return Vec{math.Max(0, math.Min(w, p[0])), math.Max(0, math.Min(h, p[1]))}
}
