// SPDX-License-Identifier: MPL-2.0

// Package history records completed task runs in a local sqlite database.
// Recording is best-effort bookkeeping: a history failure must never fail
// the task whose outcome it records.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed top-level task invocation.
type Record struct {
	Task       string
	Branch     string
	Plan       string
	ExitStatus int
	StartedAt  time.Time
	Duration   time.Duration
}

// Store persists Records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Init creates the schema when absent.
func (s *Store) Init(ctx context.Context) error {
	ddl := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS task_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task TEXT NOT NULL,
			branch TEXT,
			plan TEXT,
			exit_status INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_runs_task ON task_runs(task);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init history schema: %w", err)
		}
	}
	return nil
}

// Append stores one record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_runs (task, branch, plan, exit_status, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Task, rec.Branch, rec.Plan, rec.ExitStatus,
		rec.StartedAt.UTC().Format(time.RFC3339), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task, branch, plan, exit_status, started_at, duration_ms
		 FROM task_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var started string
		var durationMs int64
		if err := rows.Scan(&rec.Task, &rec.Branch, &rec.Plan, &rec.ExitStatus, &started, &durationMs); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
