// Package journal keeps a local record of enhancement calls: what was asked,
// how it ended, and how long it took. It stores outcome metadata only, never
// the enhanced text.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CodeOK marks a successful call in the journal.
const CodeOK = "ok"

// Entry is one recorded enhancement call.
type Entry struct {
	RequestID  string
	Endpoint   string
	Format     string
	Code       string // CodeOK or the error code
	Message    string
	LatencyMS  int64
	DraftBytes int
	CreatedAt  time.Time
}

// Journal is the sqlite-backed call log.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	format      TEXT NOT NULL DEFAULT '',
	code        TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	latency_ms  INTEGER NOT NULL,
	draft_bytes INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS calls_created_at ON calls(created_at);
`

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one call entry. A zero CreatedAt is filled with now.
func (j *Journal) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.Exec(
		`INSERT INTO calls (request_id, endpoint, format, code, message, latency_ms, draft_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Endpoint, e.Format, e.Code, e.Message, e.LatencyMS, e.DraftBytes,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT request_id, endpoint, format, code, message, latency_ms, draft_bytes, created_at
		 FROM calls ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.RequestID, &e.Endpoint, &e.Format, &e.Code, &e.Message,
			&e.LatencyMS, &e.DraftBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep entries. Non-positive keep is a no-op.
func (j *Journal) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := j.db.Exec(
		`DELETE FROM calls WHERE id NOT IN (SELECT id FROM calls ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}
