// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists the cleaned congestion dataset and the ETL run
// history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const (
	tableRecords = "congestion_records"
	tableRuns    = "etl_runs"
)

// Store provides SQLite persistence for congestion records and ETL runs.
type Store struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string, cfg sqlite.Config) (*Store, error) {
	db, err := sqlite.Open(dbPath, cfg)
	if err != nil {
		return nil, err
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs migrations.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db: db,
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs database schema migrations.
// seq preserves the canonical record order written by ReplaceRecords.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS congestion_records (
		seq INTEGER PRIMARY KEY,
		weekday TEXT NOT NULL,
		line TEXT NOT NULL,
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL,
		direction TEXT NOT NULL,
		time_slot TEXT NOT NULL,
		time_order INTEGER NOT NULL,
		congestion REAL,
		hour INTEGER NOT NULL,
		period TEXT NOT NULL,
		is_missing INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_records_weekday ON congestion_records(weekday);
	CREATE INDEX IF NOT EXISTS idx_records_line ON congestion_records(line);
	CREATE INDEX IF NOT EXISTS idx_records_station ON congestion_records(station_name);
	CREATE INDEX IF NOT EXISTS idx_records_time_order ON congestion_records(time_order);

	CREATE TABLE IF NOT EXISTS etl_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		source_file TEXT NOT NULL DEFAULT '',
		encoding TEXT NOT NULL DEFAULT '',
		rows INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		missing INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK(status IN ('ok', 'failed')),
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_etl_runs_finished ON etl_runs(finished_at);
	`

	_, err := s.db.Exec(schema)
	return err
}
