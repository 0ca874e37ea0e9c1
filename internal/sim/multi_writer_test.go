package sim

import (
	"errors"
	"testing"

	"threatsim/internal/telemetry"
)

// threatOnlyWriter implements only the mandatory interface.
type threatOnlyWriter struct{ rows []telemetry.ThreatRow }

func (w *threatOnlyWriter) WriteThreat(r telemetry.ThreatRow) error {
	w.rows = append(w.rows, r)
	return nil
}

type batchCountingWriter struct {
	recordingWriter
	batches int
}

func (w *batchCountingWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	w.batches++
	w.threats = append(w.threats, rows...)
	return nil
}

type failingWriter struct{}

func (failingWriter) WriteThreat(telemetry.ThreatRow) error { return errors.New("boom") }

type adminStatusStub struct {
	threatOnlyWriter
	addr      string
	listening bool
}

func (a *adminStatusStub) SetAdminStatus(addr string, listening bool) {
	a.addr, a.listening = addr, listening
}

func TestMultiWriterRoutesByCapability(t *testing.T) {
	plain := &threatOnlyWriter{}
	full := &recordingWriter{}
	mw := NewMultiWriter(plain, full)

	if err := mw.WriteThreats([]telemetry.ThreatRow{{Enemy: "a"}, {Enemy: "b"}}); err != nil {
		t.Fatalf("WriteThreats: %v", err)
	}
	if err := mw.WriteHit(telemetry.HitRow{Source: "a"}); err != nil {
		t.Fatalf("WriteHit: %v", err)
	}
	if err := mw.WriteObservation(telemetry.ObservationRow{Enemy: "a"}); err != nil {
		t.Fatalf("WriteObservation: %v", err)
	}
	if err := mw.WriteState(telemetry.BattleStateRow{Tick: 1}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if len(plain.rows) != 2 || len(full.threats) != 2 {
		t.Fatalf("threats not fanned out: %d %d", len(plain.rows), len(full.threats))
	}
	if len(full.hits) != 1 || len(full.observations) != 1 || len(full.states) != 1 {
		t.Fatalf("optional rows not delivered: %+v", full)
	}
}

func TestMultiWriterUsesBatch(t *testing.T) {
	bw := &batchCountingWriter{}
	mw := NewMultiWriter(bw)
	if err := mw.WriteThreats([]telemetry.ThreatRow{{Enemy: "a"}, {Enemy: "b"}}); err != nil {
		t.Fatalf("WriteThreats: %v", err)
	}
	if bw.batches != 1 || len(bw.threats) != 2 {
		t.Fatalf("batch path not used: batches=%d rows=%d", bw.batches, len(bw.threats))
	}
}

func TestMultiWriterStopsOnError(t *testing.T) {
	after := &threatOnlyWriter{}
	mw := NewMultiWriter(failingWriter{}, after)
	if err := mw.WriteThreat(telemetry.ThreatRow{}); err == nil {
		t.Fatalf("expected error")
	}
	if len(after.rows) != 0 {
		t.Fatalf("writer after failure still received rows")
	}
}

func TestMultiWriterSetAdminStatus(t *testing.T) {
	s := &adminStatusStub{}
	mw := NewMultiWriter(s)
	mw.SetAdminStatus(":8080", true)
	if !s.listening || s.addr != ":8080" {
		t.Fatalf("admin status not forwarded")
	}
}
