package sim

import "threatsim/internal/telemetry"

// ThreatWriter receives the per-tick estimator outputs.
type ThreatWriter interface {
	WriteThreat(telemetry.ThreatRow) error
}

// Optional: threat writers may support batch mode.
type batchThreatWriter interface {
	WriteThreats([]telemetry.ThreatRow) error
}

// HitWriter receives hits on the observer.
type HitWriter interface {
	WriteHit(telemetry.HitRow) error
}

// Optional: hit writers may support batch mode.
type batchHitWriter interface {
	WriteHits([]telemetry.HitRow) error
}

// ObservationWriter receives radar detections.
type ObservationWriter interface {
	WriteObservation(telemetry.ObservationRow) error
}

// Optional: observation writers may support batch mode.
type batchObservationWriter interface {
	WriteObservations([]telemetry.ObservationRow) error
}

// StateWriter handles per-tick battle state rows.
type StateWriter interface {
	WriteState(telemetry.BattleStateRow) error
}

// Optional: writers may support batch mode for state rows.
type batchStateWriter interface {
	WriteStates([]telemetry.BattleStateRow) error
}

func writeThreats(w ThreatWriter, rows []telemetry.ThreatRow) error {
	if bw, ok := w.(batchThreatWriter); ok {
		return bw.WriteThreats(rows)
	}
	for _, r := range rows {
		if err := w.WriteThreat(r); err != nil {
			return err
		}
	}
	return nil
}

func writeHits(w HitWriter, rows []telemetry.HitRow) error {
	if bw, ok := w.(batchHitWriter); ok {
		return bw.WriteHits(rows)
	}
	for _, r := range rows {
		if err := w.WriteHit(r); err != nil {
			return err
		}
	}
	return nil
}

func writeObservations(w ObservationWriter, rows []telemetry.ObservationRow) error {
	if bw, ok := w.(batchObservationWriter); ok {
		return bw.WriteObservations(rows)
	}
	for _, r := range rows {
		if err := w.WriteObservation(r); err != nil {
			return err
		}
	}
	return nil
}

func writeStates(w StateWriter, rows []telemetry.BattleStateRow) error {
	if bw, ok := w.(batchStateWriter); ok {
		return bw.WriteStates(rows)
	}
	for _, r := range rows {
		if err := w.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}
