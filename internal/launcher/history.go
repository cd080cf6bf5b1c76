package launcher

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Source records what triggered a launch.
type Source string

const (
	SourceHotkey Source = "hotkey"
	SourceUI     Source = "ui"
)

// LaunchRecord is one row of the launch history.
type LaunchRecord struct {
	TargetID   string    `json:"target_id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Source     Source    `json:"source"`
	LaunchedAt time.Time `json:"launched_at"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS launches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id   TEXT NOT NULL,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL,
	source      TEXT NOT NULL,
	launched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_launches_target ON launches(target_id);
CREATE INDEX IF NOT EXISTS idx_launches_time ON launches(launched_at);
`

// History stores launches in SQLite.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(2000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &History{db: db, now: time.Now}, nil
}

// insert appends one launch. The launcher's history writer is the only
// caller.
func (h *History) insert(r LaunchRecord) error {
	_, err := h.db.Exec(
		`INSERT INTO launches (target_id, name, path, source, launched_at) VALUES (?, ?, ?, ?, ?)`,
		r.TargetID, r.Name, r.Path, string(r.Source), r.LaunchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record launch of %s: %w", r.TargetID, err)
	}
	return nil
}

// Recent returns up to limit launches, newest first.
func (h *History) Recent(limit int) ([]LaunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.Query(
		`SELECT target_id, name, path, source, launched_at FROM launches ORDER BY launched_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()

	records := []LaunchRecord{}
	for rows.Next() {
		var (
			r      LaunchRecord
			source string
			nanos  int64
		)
		if err := rows.Scan(&r.TargetID, &r.Name, &r.Path, &source, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		r.Source = Source(source)
		r.LaunchedAt = time.Unix(0, nanos)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns how many times the target was launched.
func (h *History) Count(targetID string) (int, error) {
	var n int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM launches WHERE target_id = ?`, targetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count launches: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}
