package sim

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"threatsim/internal/telemetry"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS threats (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	battle_id      TEXT NOT NULL,
	enemy          TEXT NOT NULL,
	tick           INTEGER NOT NULL,
	x              REAL,
	y              REAL,
	energy         REAL,
	distance       REAL,
	repulsion_x    REAL,
	repulsion_y    REAL,
	danger_score   REAL,
	tracking_score REAL,
	seen           INTEGER,
	ts             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS threats_battle_tick ON threats (battle_id, tick);

CREATE TABLE IF NOT EXISTS hits (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	battle_id TEXT NOT NULL,
	source    TEXT NOT NULL,
	tick      INTEGER NOT NULL,
	power     REAL NOT NULL,
	damage    REAL NOT NULL,
	ts        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS battle_state (
	battle_id       TEXT NOT NULL,
	tick            INTEGER NOT NULL,
	observer_x      REAL,
	observer_y      REAL,
	observer_energy REAL,
	tracked         INTEGER,
	visible         INTEGER,
	hits            INTEGER,
	ts              TEXT NOT NULL,
	PRIMARY KEY (battle_id, tick)
);
`

// SQLiteWriter archives a battle into a SQLite database.
type SQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWriter opens a SQLite database and runs migrations.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (w *SQLiteWriter) DB() *sql.DB { return w.db }

// Close closes the underlying database connection.
func (w *SQLiteWriter) Close() error { return w.db.Close() }

func formatTS(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// WriteThreat inserts a single threat row.
func (w *SQLiteWriter) WriteThreat(row telemetry.ThreatRow) error {
	return w.WriteThreats([]telemetry.ThreatRow{row})
}

// WriteThreats inserts multiple threat rows in one transaction.
func (w *SQLiteWriter) WriteThreats(rows []telemetry.ThreatRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO threats (battle_id, enemy, tick, x, y, energy, distance, repulsion_x, repulsion_y, danger_score, tracking_score, seen, ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.BattleID, r.Enemy, r.Tick, r.X, r.Y, r.Energy, r.Distance, r.RepulsionX, r.RepulsionY,
			r.DangerScore, r.TrackingScore, r.Seen, formatTS(r.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("insert threat: %w", err)
		}
	}
	return tx.Commit()
}

// WriteHit inserts a hit row.
func (w *SQLiteWriter) WriteHit(r telemetry.HitRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.db.Exec(
		`INSERT INTO hits (battle_id, source, tick, power, damage, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		r.BattleID, r.Source, r.Tick, r.Power, r.Damage, formatTS(r.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}

// WriteState upserts the state row of a tick.
func (w *SQLiteWriter) WriteState(r telemetry.BattleStateRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.db.Exec(
		`INSERT OR REPLACE INTO battle_state (battle_id, tick, observer_x, observer_y, observer_energy, tracked, visible, hits, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BattleID, r.Tick, r.ObserverX, r.ObserverY, r.ObserverEnergy, r.Tracked, r.Visible, r.Hits, formatTS(r.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert state: %w", err)
	}
	return nil
}

// DangerByEnemy returns the highest danger score each enemy reached in a battle.
func (w *SQLiteWriter) DangerByEnemy(battleID string) (map[string]float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, err := w.db.Query(`SELECT enemy, MAX(danger_score) FROM threats WHERE battle_id = ? GROUP BY enemy`, battleID)
	if err != nil {
		return nil, fmt.Errorf("query danger: %w", err)
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var score float64
		if err := rows.Scan(&name, &score); err != nil {
			return nil, fmt.Errorf("scan danger: %w", err)
		}
		out[name] = score
	}
	return out, rows.Err()
}
