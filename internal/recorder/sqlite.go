package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"BreakoutSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers (CLI, dashboards) do not block the scanner.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_cycles (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			uptrend     INTEGER,
			exits       INTEGER,
			entries     INTEGER,
			skipped     INTEGER,
			held        INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON scan_cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT,
			timestamp  INTEGER NOT NULL,
			kind       TEXT NOT NULL,
			ticker     TEXT NOT NULL,
			reason     TEXT,
			price      REAL,
			entry      REAL,
			pivot      REAL,
			stop       REAL,
			target     REAL,
			vol_ratio  REAL,
			rs_short   REAL,
			rs_long    REAL,
			size_pct   REAL,
			gain_pct   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker ON signals(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(c *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scan_cycles
		(id, started_at, duration_ms, uptrend, exits, entries, skipped, held, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		c.ID, c.StartedAt.Unix(), c.Duration.Milliseconds(), boolToInt(c.Uptrend),
		c.Exits, c.Entries, c.Skipped, c.Held, c.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(s *SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(cycle_id, timestamp, kind, ticker, reason, price, entry, pivot, stop, target,
		 vol_ratio, rs_short, rs_long, size_pct, gain_pct)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.CycleID, s.Timestamp.Unix(), string(s.Kind), s.Ticker, s.Reason, s.Price,
		s.Entry, s.Pivot, s.Stop, s.Target, s.VolRatio, s.RSShort, s.RSLong, s.SizePct, s.GainPct,
	)
	return err
}

// RecentSignals returns the newest signals first.
func (r *SQLiteRecorder) RecentSignals(limit int) ([]SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT cycle_id, timestamp, kind, ticker, reason, price, entry, pivot,
		stop, target, vol_ratio, rs_short, rs_long, size_pct, gain_pct
		FROM signals ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var (
			s    SignalRecord
			ts   int64
			kind string
		)
		if err := rows.Scan(&s.CycleID, &ts, &kind, &s.Ticker, &s.Reason, &s.Price, &s.Entry, &s.Pivot,
			&s.Stop, &s.Target, &s.VolRatio, &s.RSShort, &s.RSLong, &s.SizePct, &s.GainPct); err != nil {
			return nil, err
		}
		s.Timestamp = time.Unix(ts, 0)
		s.Kind = model.SignalKind(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
