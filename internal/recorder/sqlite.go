package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"TickerDesk/internal/model"
)

// SQLiteRecorder journals fetch diagnostics to a SQLite database.
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

	// WAL lets `tickerdesk journal` read while a running desk writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT NOT NULL,
			kind        TEXT NOT NULL,
			symbol      TEXT,
			start_date  TEXT,
			end_date    TEXT,
			generation  INTEGER,
			status      TEXT,
			error_kind  TEXT,
			reason      TEXT,
			row_count   INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_symbol ON fetch_events(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := evt.RecordedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, request_id, kind, symbol, start_date, end_date, generation,
		 status, error_kind, reason, row_count, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), evt.RequestID, evt.Kind, evt.Symbol, evt.StartDate, evt.EndDate, int64(evt.Generation),
		string(evt.Status), string(evt.ErrorKind), evt.Reason, evt.Rows, evt.Duration.Milliseconds(),
	)
	return err
}

// Recent returns the latest limit events, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]FetchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, request_id, kind, symbol, start_date, end_date, generation,
		status, error_kind, reason, row_count, duration_ms
		FROM fetch_events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetch events: %w", err)
	}
	defer rows.Close()

	var events []FetchEvent
	for rows.Next() {
		var (
			evt        FetchEvent
			ts, dur    int64
			gen        int64
			status, ek string
		)
		if err := rows.Scan(&ts, &evt.RequestID, &evt.Kind, &evt.Symbol, &evt.StartDate, &evt.EndDate, &gen,
			&status, &ek, &evt.Reason, &evt.Rows, &dur); err != nil {
			return nil, fmt.Errorf("scan fetch event: %w", err)
		}
		evt.RecordedAt = time.UnixMilli(ts)
		evt.Generation = uint64(gen)
		evt.Status = model.Status(status)
		evt.ErrorKind = model.ErrorKind(ek)
		evt.Duration = time.Duration(dur) * time.Millisecond
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
