// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite history of conversion runs: when each batch
// ran and how every dataset in it turned out. Row data is never stored.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/datasheet-export/internal/convert"
	"github.com/pdiddy/datasheet-export/pkg/types"
)

const (
	defaultLimit = 20
	// timeFormat has fixed-width fractions so stored times sort as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is one recorded batch.
type Run struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Converted  int          `json:"converted"`
	NotFound   int          `json:"not_found"`
	Failed     int          `json:"failed"`
	Entries    []Conversion `json:"conversions,omitempty"`
}

// Conversion is the recorded outcome of one dataset within a run.
type Conversion struct {
	Dataset     string                 `json:"dataset"`
	Source      string                 `json:"source"`
	Destination string                 `json:"destination"`
	Status      types.ConversionStatus `json:"status"`
	Rows        int                    `json:"rows"`
	Error       string                 `json:"error,omitempty"`
}

// FromBatch builds a Run from a finished batch.
func FromBatch(result convert.BatchResult, started, finished time.Time) Run {
	run := Run{
		StartedAt:  started,
		FinishedAt: finished,
		Converted:  result.Converted,
		NotFound:   result.NotFound,
		Failed:     result.Failed,
		Entries:    make([]Conversion, len(result.Outcomes)),
	}
	for i, o := range result.Outcomes {
		c := Conversion{
			Dataset:     o.Job.Name,
			Source:      o.Job.Source,
			Destination: o.Job.Destination,
			Status:      o.Status,
			Rows:        o.Rows,
		}
		if o.Err != nil {
			c.Error = o.Err.Error()
		}
		run.Entries[i] = c
	}
	return run
}

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			converted INTEGER NOT NULL,
			not_found INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			dataset TEXT NOT NULL,
			source TEXT NOT NULL,
			destination TEXT NOT NULL,
			status TEXT NOT NULL,
			rows INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores run and its entries in one transaction. An empty ID is
// replaced with a new UUID; the stored ID is returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, converted, not_found, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.Converted, run.NotFound, run.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO conversions (run_id, seq, dataset, source, destination, status, rows, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range run.Entries {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, c.Dataset, c.Source, c.Destination, string(c.Status), c.Rows, c.Error,
		)
		if err != nil {
			return "", fmt.Errorf("inserting conversion %s: %w", c.Dataset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// Recent returns up to limit runs, newest first, without their entries.
// A non-positive limit uses the default of 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, converted, not_found, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Converted, &r.NotFound, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Conversions returns the entries recorded for runID in batch order.
func (s *Store) Conversions(ctx context.Context, runID string) ([]Conversion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, source, destination, status, rows, COALESCE(error, '')
		 FROM conversions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var status string
		if err := rows.Scan(&c.Dataset, &c.Source, &c.Destination, &status, &c.Rows, &c.Error); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		c.Status = types.ConversionStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}
