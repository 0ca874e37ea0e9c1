package sim

import (
	"encoding/json"
	"os"
	"sync"

	"threatsim/internal/telemetry"
)

// FileWriter writes threat rows and the battle event log to JSONL files.
// The event log holds observations, hits and state rows in emission order
// and can be fed back through ReplayLog.
type FileWriter struct {
	threatFile *os.File
	eventFile  *os.File
	threatEnc  *json.Encoder
	eventEnc   *json.Encoder
	mu         sync.Mutex
}

// NewFileWriter creates a FileWriter. eventsPath may be empty to skip the event log.
func NewFileWriter(threatsPath, eventsPath string) (*FileWriter, error) {
	tf, err := os.Create(threatsPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{threatFile: tf, threatEnc: json.NewEncoder(tf)}
	if eventsPath != "" {
		ef, err := os.Create(eventsPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// WriteThreat logs a single threat row.
func (f *FileWriter) WriteThreat(row telemetry.ThreatRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threatEnc.Encode(row)
}

// WriteThreats logs multiple threat rows.
func (f *FileWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	for _, r := range rows {
		if err := f.WriteThreat(r); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileWriter) writeEvent(ev telemetry.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventEnc.Encode(ev)
}

// WriteObservation logs a radar detection to the event log, if enabled.
func (f *FileWriter) WriteObservation(row telemetry.ObservationRow) error {
	return f.writeEvent(telemetry.EventRow{Kind: telemetry.EventObservation, Observation: &row})
}

// WriteHit logs a hit to the event log, if enabled.
func (f *FileWriter) WriteHit(row telemetry.HitRow) error {
	return f.writeEvent(telemetry.EventRow{Kind: telemetry.EventHit, Hit: &row})
}

// WriteState logs the end-of-tick state to the event log, if enabled.
func (f *FileWriter) WriteState(row telemetry.BattleStateRow) error {
	return f.writeEvent(telemetry.EventRow{Kind: telemetry.EventState, State: &row})
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.threatFile != nil {
		if e := f.threatFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
