package threat

import (
	"math"

	"threatsim/internal/geom"
)

// Repulsion returns the inverse-square force g/r² that pushes the observer
// away from the enemy, along with the plain observer-enemy distance.
//
// r is clamped to minDist for the force only. When both points coincide
// the direction is undefined and the zero vector is returned.
func Repulsion(observer, enemy geom.Vec, g, minDist float64) (force geom.Vec, dist float64) {
	dist = geom.Distance(observer, enemy)
	dir, ok := geom.Unit(enemy.Sub(observer))
	if !ok {
		return geom.Vec{}, dist
	}
	r := math.Max(dist, minDist)
	return dir.Mul(-g / (r * r)), dist
}
