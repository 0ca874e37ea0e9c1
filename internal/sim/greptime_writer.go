package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"threatsim/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes battle rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client           greptimeClient
	threatTable      string
	hitTable         string
	observationTable string
	stateTable       string
	timeout          time.Duration
	log              *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") and
// writes into database. Tables are created on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return newGreptimeDBWriter(client), nil
}

func newGreptimeDBWriter(client greptimeClient) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:           client,
		threatTable:      telemetry.ThreatTableName,
		hitTable:         telemetry.HitTableName,
		observationTable: telemetry.ObservationTableName,
		stateTable:       telemetry.StateTableName,
		timeout:          5 * time.Second,
		log:              slog.Default(),
	}
}

// WithLogger sets the logger used for write diagnostics.
func (w *GreptimeDBWriter) WithLogger(l *slog.Logger) *GreptimeDBWriter {
	if l != nil {
		w.log = l
	}
	return w
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, rows int) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.log.Error("greptime write failed", "table", name, "err", err)
		return err
	}
	w.log.Debug("greptime write", "table", name, "rows", rows)
	return nil
}

// WriteThreat inserts a single threat row.
func (w *GreptimeDBWriter) WriteThreat(row telemetry.ThreatRow) error {
	return w.WriteThreats([]telemetry.ThreatRow{row})
}

// WriteThreats inserts multiple threat rows.
func (w *GreptimeDBWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.threatTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddTagColumn("enemy", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddFieldColumn("heading", types.FLOAT64)
	tbl.AddFieldColumn("bearing", types.FLOAT64)
	tbl.AddFieldColumn("velocity", types.FLOAT64)
	tbl.AddFieldColumn("energy", types.FLOAT64)
	tbl.AddFieldColumn("distance", types.FLOAT64)
	tbl.AddFieldColumn("repulsion_x", types.FLOAT64)
	tbl.AddFieldColumn("repulsion_y", types.FLOAT64)
	tbl.AddFieldColumn("danger_score", types.FLOAT64)
	tbl.AddFieldColumn("tracking_score", types.FLOAT64)
	tbl.AddFieldColumn("seen", types.BOOLEAN)
	tbl.AddFieldColumn("last_seen_tick", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, r := range rows {
		if err := tbl.AddRow(r.BattleID, r.Enemy, r.Tick, r.X, r.Y, r.Heading, r.Bearing, r.Velocity, r.Energy,
			r.Distance, r.RepulsionX, r.RepulsionY, r.DangerScore, r.TrackingScore, r.Seen, r.LastSeenTick, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.threatTable, tbl, len(rows))
}

// WriteHit inserts a single hit row.
func (w *GreptimeDBWriter) WriteHit(row telemetry.HitRow) error {
	return w.WriteHits([]telemetry.HitRow{row})
}

// WriteHits inserts multiple hit rows.
func (w *GreptimeDBWriter) WriteHits(rows []telemetry.HitRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.hitTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddTagColumn("source", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("power", types.FLOAT64)
	tbl.AddFieldColumn("damage", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, r := range rows {
		if err := tbl.AddRow(r.BattleID, r.Source, r.Tick, r.Power, r.Damage, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.hitTable, tbl, len(rows))
}

// WriteObservation inserts a single radar detection.
func (w *GreptimeDBWriter) WriteObservation(row telemetry.ObservationRow) error {
	return w.WriteObservations([]telemetry.ObservationRow{row})
}

// WriteObservations inserts multiple radar detections.
func (w *GreptimeDBWriter) WriteObservations(rows []telemetry.ObservationRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.observationTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddTagColumn("enemy", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddFieldColumn("energy", types.FLOAT64)
	tbl.AddFieldColumn("observer_x", types.FLOAT64)
	tbl.AddFieldColumn("observer_y", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, r := range rows {
		if err := tbl.AddRow(r.BattleID, r.Enemy, r.Tick, r.X, r.Y, r.Energy, r.ObserverX, r.ObserverY, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.observationTable, tbl, len(rows))
}

// WriteState inserts a battle state row.
func (w *GreptimeDBWriter) WriteState(row telemetry.BattleStateRow) error {
	return w.WriteStates([]telemetry.BattleStateRow{row})
}

// WriteStates inserts multiple battle state rows.
func (w *GreptimeDBWriter) WriteStates(rows []telemetry.BattleStateRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("battle_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("observer_x", types.FLOAT64)
	tbl.AddFieldColumn("observer_y", types.FLOAT64)
	tbl.AddFieldColumn("observer_energy", types.FLOAT64)
	tbl.AddFieldColumn("tracked", types.INT64)
	tbl.AddFieldColumn("visible", types.INT64)
	tbl.AddFieldColumn("hits", types.INT64)
	tbl.AddFieldColumn("net_force_x", types.FLOAT64)
	tbl.AddFieldColumn("net_force_y", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, r := range rows {
		if err := tbl.AddRow(r.BattleID, r.Tick, r.ObserverX, r.ObserverY, r.ObserverEnergy,
			int64(r.Tracked), int64(r.Visible), int64(r.Hits), r.NetForceX, r.NetForceY, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.stateTable, tbl, len(rows))
}
