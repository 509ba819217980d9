// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"time"
)

// PingChecker reports a dependency reachable through ping. Failures are
// reported with the given severity so optional dependencies can degrade
// instead of failing readiness.
type PingChecker struct {
	name      string
	ping      func(ctx context.Context) error
	onFailure Status
}

// NewPingChecker creates a checker that is unhealthy when ping fails.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, onFailure: StatusUnhealthy}
}

// NewOptionalPingChecker creates a checker that only degrades when ping fails.
func NewOptionalPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, onFailure: StatusDegraded}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: c.onFailure, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// DatasetChecker reports whether a dataset snapshot is being served.
type DatasetChecker struct {
	snapshot func() (records int, loadedAt time.Time)
}

func NewDatasetChecker(snapshot func() (int, time.Time)) *DatasetChecker {
	return &DatasetChecker{snapshot: snapshot}
}

func (c *DatasetChecker) Name() string { return "dataset" }

func (c *DatasetChecker) Check(_ context.Context) CheckResult {
	records, loadedAt := c.snapshot()
	if loadedAt.IsZero() {
		return CheckResult{Status: StatusUnhealthy, Message: "no dataset loaded yet"}
	}
	if records == 0 {
		return CheckResult{Status: StatusDegraded, Message: "dataset is empty"}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d records loaded at %s", records, loadedAt.UTC().Format(time.RFC3339)),
	}
}

// LastRunChecker checks if the last refresh was successful. A failed refresh
// only degrades the service: the previous snapshot keeps being served.
type LastRunChecker struct {
	getLastRun func(ctx context.Context) (lastRun time.Time, lastError string, err error)
}

// NewLastRunChecker creates a checker for last refresh status
func NewLastRunChecker(getLastRun func(ctx context.Context) (time.Time, string, error)) *LastRunChecker {
	return &LastRunChecker{getLastRun: getLastRun}
}

func (c *LastRunChecker) Name() string { return "last_refresh" }

func (c *LastRunChecker) Check(ctx context.Context) CheckResult {
	lastRun, lastError, err := c.getLastRun(ctx)

	switch {
	case err != nil:
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "run history unavailable"}
	case lastRun.IsZero():
		return CheckResult{Status: StatusHealthy, Message: "no refresh recorded yet"}
	case lastError != "":
		return CheckResult{Status: StatusDegraded, Error: lastError, Message: "last refresh failed"}
	default:
		return CheckResult{
			Status:  StatusHealthy,
			Message: "last refresh successful at " + lastRun.UTC().Format(time.RFC3339),
		}
	}
}

// SyncChecker compares the stored record count with the served snapshot.
// A mismatch means a refresh replaced the data without a reload, or the
// database was written by another process.
type SyncChecker struct {
	stored func(ctx context.Context) (int, error)
	served func() int
}

func NewSyncChecker(stored func(ctx context.Context) (int, error), served func() int) *SyncChecker {
	return &SyncChecker{stored: stored, served: served}
}

func (c *SyncChecker) Name() string { return "dataset_sync" }

func (c *SyncChecker) Check(ctx context.Context) CheckResult {
	stored, err := c.stored(ctx)
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "cannot count stored records"}
	}
	if served := c.served(); served != stored {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("store holds %d records, serving %d", stored, served),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d records in sync", stored)}
}

// FileChecker checks if a file exists and is readable
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: c.path}
	case err != nil:
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	case info.IsDir():
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	case info.Size() == 0:
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}
