// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"context"
	"time"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/etl"
	"github.com/ManuGH/metrocrowd/internal/store"
)

// RunStore persists ETL output and run history.
type RunStore interface {
	ReplaceRecords(ctx context.Context, run store.Run, records []congestion.Record) error
	RecordRun(ctx context.Context, run store.Run) error
}

// Loader reloads the served dataset from the store.
type Loader interface {
	Load(ctx context.Context) (*dataset.Snapshot, error)
}

// Invalidator drops derived responses after the dataset changed.
type Invalidator interface {
	Clear()
}

// Limiter throttles refresh triggers. client is empty for internal triggers.
type Limiter interface {
	Allow(client string) bool
}

// ETLFunc runs the ETL pipeline.
type ETLFunc func(ctx context.Context, opts etl.Options) (*etl.Result, error)

// Config holds configuration for refresh operations
type Config struct {
	RawDir     string
	SourceFile string
	ReportPath string
	Debounce   time.Duration // raw-dir watcher quiet period
}

// Deps holds the collaborators of a Refresher. Store is required; the rest
// are optional.
type Deps struct {
	Store   RunStore
	Dataset Loader
	Cache   Invalidator
	Limiter Limiter
	ETL     ETLFunc
	Clock   func() time.Time
	NewID   func() string
}

// Trigger describes who asked for a refresh.
type Trigger struct {
	Source string // one of the Trigger* constants
	Client string // caller identity for per-client throttling
}

// Trigger sources.
const (
	TriggerStartup = "startup"
	TriggerAPI     = "api"
	TriggerWatcher = "watcher"
	TriggerSignal  = "signal"
	TriggerCLI     = "cli"
)

// Status represents the current state of the refresh job
type Status struct {
	Running    bool      `json:"running"`
	LastRun    time.Time `json:"last_run,omitzero"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastOK     time.Time `json:"last_ok,omitzero"`
	Records    int       `json:"records"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}
