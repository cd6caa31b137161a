package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS request_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         TEXT NOT NULL,
	request_id TEXT NOT NULL,
	method     TEXT NOT NULL,
	path       TEXT NOT NULL,
	endpoint   TEXT,
	status     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_events_ts ON request_events(ts);
`

// EventStore archives request events in a local SQLite database, so a user
// reporting "orders stopped loading yesterday" can be answered from the
// machine itself.
type EventStore struct {
	db *sql.DB
}

// OpenEventStore opens (and if needed creates) the archive database.
func OpenEventStore(path string) (*EventStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer: the request middleware. Parallel writes would just fight
	// over SQLite's file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &EventStore{db: db}, nil
}

// Insert archives one event. Errors are logged, not returned: archival must
// never block request handling.
func (s *EventStore) Insert(ctx context.Context, event *RequestEvent) {
	if s == nil || event == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_events (ts, request_id, method, path, endpoint, status, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp.Format(time.RFC3339Nano),
		event.RequestID, event.Method, event.Path,
		event.UpstreamEndpoint, event.Status, event.DurationMS,
	)
	if err != nil {
		log.Error().Err(err).Msg("event store: insert failed")
	}
}

// CountSince reports how many events were archived at or after the cutoff.
func (s *EventStore) CountSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_events WHERE ts >= ?`,
		cutoff.Format(time.RFC3339Nano),
	).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *EventStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
