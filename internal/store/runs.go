// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// Run statuses.
const (
	RunOK     = "ok"
	RunFailed = "failed"
)

// Run is one ETL execution.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	SourceFile string    `json:"source_file"`
	Encoding   string    `json:"encoding"`
	Rows       int       `json:"rows"`
	Records    int       `json:"records"`
	Missing    int       `json:"missing"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var runColumns = []string{
	"id", "started_at", "finished_at", "source_file", "encoding",
	"rows", "records", "missing", "status", "error",
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertRun(ctx context.Context, db execer, run Run) error {
	if run.Status != RunOK && run.Status != RunFailed {
		return fmt.Errorf("invalid run status %q", run.Status)
	}
	query, args, err := s.qb.Insert(tableRuns).
		Columns(runColumns...).
		Values(
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
			run.SourceFile, run.Encoding,
			run.Rows, run.Records, run.Missing,
			run.Status, run.Error,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordRun persists a run without touching the dataset. Used for failed runs.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	return s.insertRun(ctx, s.db, run)
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := s.qb.Select(runColumns...).
		From(tableRuns).
		OrderBy("finished_at DESC", "id DESC").
		Limit(uint64(limit))
	runs, err := s.queryRuns(ctx, q)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// LatestRun returns the newest run, or ErrNotFound when none was recorded.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// LatestSuccessfulRun returns the newest run with status ok.
func (s *Store) LatestSuccessfulRun(ctx context.Context) (*Run, error) {
	q := s.qb.Select(runColumns...).
		From(tableRuns).
		Where(squirrel.Eq{"status": RunOK}).
		OrderBy("finished_at DESC", "id DESC").
		Limit(1)
	runs, err := s.queryRuns(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// DataRevision identifies the stored dataset across restarts: the ID of the
// run that last replaced the records, or "" when nothing was stored yet.
func (s *Store) DataRevision(ctx context.Context) (string, error) {
	run, err := s.LatestSuccessfulRun(ctx)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (s *Store) queryRuns(ctx context.Context, q squirrel.SelectBuilder) ([]Run, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.SourceFile, &r.Encoding,
			&r.Rows, &r.Records, &r.Missing, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return runs, nil
}
