package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"LPSentinel/internal/logger"
)

const recorderLog = logger.Component("recorder")

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the sentinel writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	recorderLog.L().Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id      TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			universe_size INTEGER,
			posted        INTEGER,
			degraded      INTEGER,
			reselected    INTEGER,
			tracked       INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS selections (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			trigger_type TEXT,
			position   INTEGER,
			pool       TEXT,
			project    TEXT,
			chain      TEXT,
			symbol     TEXT,
			category   TEXT,
			tier       TEXT,
			score      REAL,
			net_apy    REAL,
			apy        REAL,
			tvl_usd    REAL,
			volume_7d  REAL,
			il7d       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_ts ON selections(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_pool ON selections(pool)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			pool       TEXT,
			project    TEXT,
			symbol     TEXT,
			tvl_usd    REAL,
			volume_7d  REAL,
			net_apy    REAL,
			il7d       REAL,
			reasons    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(evt *CycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(cycle_id, timestamp, universe_size, posted, degraded, reselected, tracked, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		evt.CycleID, evt.At.Unix(), evt.UniverseSize, boolInt(evt.Posted),
		evt.Degraded, boolInt(evt.Reselected), evt.Tracked, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordSelection(evt *SelectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for i, p := range evt.Picks {
		if _, err := tx.Exec(`INSERT INTO selections
			(cycle_id, timestamp, trigger_type, position, pool, project, chain, symbol, category, tier,
			 score, net_apy, apy, tvl_usd, volume_7d, il7d)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			evt.CycleID, evt.At.Unix(), string(evt.Trigger), i+1,
			p.Pool.ID, p.Pool.Project, p.Pool.Chain, p.Pool.Symbol, string(p.Category), p.Tier,
			p.Score, p.NetAPY, p.Pool.APY, p.Pool.TVLUsd, p.Pool.VolumeUsd7d, nullFloat(p.Pool.IL7d),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, d := range evt.Degraded {
		s := d.Snapshot
		if _, err := tx.Exec(`INSERT INTO alerts
			(cycle_id, timestamp, pool, project, symbol, tvl_usd, volume_7d, net_apy, il7d, reasons)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			evt.CycleID, evt.At.Unix(), s.Pool, s.Project, s.Symbol,
			s.TVLUsd, s.VolumeUsd7d, s.NetAPY, nullFloat(s.IL7d), strings.Join(d.Reasons, "; "),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DB exposes the handle for read-side queries.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) Close() error {
	recorderLog.L().Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
