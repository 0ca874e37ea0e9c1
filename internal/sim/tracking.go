package sim

import (
	"threatsim/internal/config"
	"threatsim/internal/threat"
)

// proximityScale maps distance onto roughly the same range as danger
// scores, so closer enemies score higher.
const proximityScale = 1000.0

// WeightedTrackingScore is the harness's stand-in for a targeting
// decision: a weighted sum of proximity, danger and remaining energy.
func WeightedTrackingScore(st threat.State, w config.TrackingWeights) float64 {
	proximity := proximityScale / (st.Distance + 1)
	return w.Distance*proximity + w.Danger*st.DangerScore + w.Energy*st.Kinematics.Energy
}
