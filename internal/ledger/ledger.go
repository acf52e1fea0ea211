// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the history of handled requests in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/convertly/pkg/types"
)

const (
	defaultLimit = 50
	timeLayout   = time.RFC3339Nano
)

// Store is the request ledger. A nil *Store accepts records and drops
// them, so callers need no branch for a disabled ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS requests (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			operation TEXT NOT NULL,
			source TEXT,
			status TEXT NOT NULL,
			error TEXT,
			output_bytes INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_operation ON requests(operation)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_started_at ON requests(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends rec to the ledger.
func (s *Store) Record(ctx context.Context, rec types.RequestRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (id, operation, source, status, error, output_bytes, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Source, string(rec.Status), rec.Error, rec.OutputBytes,
		rec.StartedAt.UTC().Format(timeLayout), rec.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording request %s: %w", rec.ID, err)
	}
	return nil
}

// QueryOptions filters List.
type QueryOptions struct {
	// Limit caps the number of records (default 50).
	Limit int

	// Operation keeps only records for one operation.
	Operation string

	// Status keeps only records with one outcome.
	Status types.RequestStatus
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.RequestRecord, error) {
	if s == nil {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, operation, source, status, error, output_bytes, started_at, finished_at
		FROM requests WHERE 1=1`
	var args []any
	if opts.Operation != "" {
		query += ` AND operation = ?`
		args = append(args, opts.Operation)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	var records []types.RequestRecord
	for rows.Next() {
		var (
			rec               types.RequestRecord
			status            string
			source, errMsg    sql.NullString
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &rec.Operation, &source, &status, &errMsg,
			&rec.OutputBytes, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		rec.Source = source.String
		rec.Error = errMsg.String
		rec.Status = types.RequestStatus(status)
		rec.StartedAt, _ = time.Parse(timeLayout, started)
		rec.FinishedAt, _ = time.Parse(timeLayout, finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// OperationSummary counts outcomes for one operation.
type OperationSummary struct {
	Operation string `json:"operation" yaml:"operation"`
	Succeeded int    `json:"succeeded" yaml:"succeeded"`
	Rejected  int    `json:"rejected" yaml:"rejected"`
	Failed    int    `json:"failed" yaml:"failed"`
}

// Total returns the number of requests counted.
func (o OperationSummary) Total() int {
	return o.Succeeded + o.Rejected + o.Failed
}

// Summarize returns per-operation outcome counts ordered by operation.
func (s *Store) Summarize(ctx context.Context) ([]OperationSummary, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT operation, status, count(*) FROM requests GROUP BY operation, status ORDER BY operation`)
	if err != nil {
		return nil, fmt.Errorf("summarizing requests: %w", err)
	}
	defer rows.Close()

	var out []OperationSummary
	for rows.Next() {
		var (
			op, status string
			n          int
		)
		if err := rows.Scan(&op, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Operation != op {
			out = append(out, OperationSummary{Operation: op})
		}
		cur := &out[len(out)-1]
		switch types.RequestStatus(status) {
		case types.StatusSucceeded:
			cur.Succeeded += n
		case types.StatusRejected:
			cur.Rejected += n
		case types.StatusFailed:
			cur.Failed += n
		}
	}
	return out, rows.Err()
}
