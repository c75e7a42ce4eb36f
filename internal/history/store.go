// Package history persists run summaries in a local SQLite database so
// past suite results can be inspected after the fact.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mmoult/scenetest/internal/harness"
)

// DefaultPath is the history database location relative to the repo root.
const DefaultPath = ".scenetest/history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	regen       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
	run_id TEXT NOT NULL REFERENCES runs(id),
	dir    TEXT NOT NULL,
	format TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS failures_run_id ON failures(run_id);
`

// Run is one recorded harness invocation.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Regen      bool      `json:"regen"`
}

// Failure is one failed execution within a recorded run.
type Failure struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
	Reason string `json:"reason"`
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path. The
// parent directory is created when absent.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed run and its failures, assigning a fresh run
// ID. The write is transactional so a crash never leaves failures
// without their run row.
func (s *Store) Record(started, finished time.Time, summary *harness.Summary) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, total, passed, failed, regen)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		started.UTC().Format(time.RFC3339Nano),
		finished.UTC().Format(time.RFC3339Nano),
		summary.Total, summary.Passed, summary.Failed, boolToInt(summary.Regen),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, e := range summary.Executions {
		if e.Passed {
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO failures (run_id, dir, format, reason) VALUES (?, ?, ?, ?)`,
			id, e.Dir, e.Format, e.Reason,
		)
		if err != nil {
			return "", fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history transaction: %w", err)
	}
	return id, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, total, passed, failed, regen
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var regen int
		if err := rows.Scan(&r.ID, &started, &finished, &r.Total, &r.Passed, &r.Failed, &regen); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Regen = regen != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Failures returns the failed executions recorded for a run.
func (s *Store) Failures(runID string) ([]Failure, error) {
	rows, err := s.db.Query(
		`SELECT dir, format, reason FROM failures WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Dir, &f.Format, &f.Reason); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
