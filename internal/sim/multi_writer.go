package sim

import "threatsim/internal/telemetry"

// MultiWriter fans rows out to multiple writers. Writers only receive the
// row kinds they implement.
type MultiWriter struct {
	writers []ThreatWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...ThreatWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteThreat sends a threat row to all writers.
func (mw *MultiWriter) WriteThreat(row telemetry.ThreatRow) error {
	for _, w := range mw.writers {
		if err := w.WriteThreat(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteThreats sends multiple threat rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	for _, w := range mw.writers {
		if err := writeThreats(w, rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteHit sends a hit row to all hit writers.
func (mw *MultiWriter) WriteHit(row telemetry.HitRow) error {
	return mw.WriteHits([]telemetry.HitRow{row})
}

// WriteHits sends multiple hit rows to all hit writers, using batch if supported.
func (mw *MultiWriter) WriteHits(rows []telemetry.HitRow) error {
	for _, w := range mw.writers {
		if hw, ok := w.(HitWriter); ok {
			if err := writeHits(hw, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteObservation sends an observation to all observation writers.
func (mw *MultiWriter) WriteObservation(row telemetry.ObservationRow) error {
	return mw.WriteObservations([]telemetry.ObservationRow{row})
}

// WriteObservations sends multiple observations, using batch if supported.
func (mw *MultiWriter) WriteObservations(rows []telemetry.ObservationRow) error {
	for _, w := range mw.writers {
		if ow, ok := w.(ObservationWriter); ok {
			if err := writeObservations(ow, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.BattleStateRow) error {
	return mw.WriteStates([]telemetry.BattleStateRow{row})
}

// WriteStates sends multiple state rows, using batch if supported.
func (mw *MultiWriter) WriteStates(rows []telemetry.BattleStateRow) error {
	for _, w := range mw.writers {
		if sw, ok := w.(StateWriter); ok {
			if err := writeStates(sw, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetAdminStatus forwards admin UI status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(addr string, listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(addr, listening)
		}
	}
}
