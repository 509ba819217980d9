// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package jobs runs the refresh cycle: ETL, persist, reload, invalidate.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/metrocrowd/internal/etl"
	xglog "github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/metrics"
	"github.com/ManuGH/metrocrowd/internal/store"
	"github.com/ManuGH/metrocrowd/internal/telemetry"
)

var (
	// ErrRefreshInProgress is returned when another refresh holds the lock.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrRefreshThrottled is returned when the trigger exceeded the rate limit.
	ErrRefreshThrottled = errors.New("refresh throttled")
)

var tracer = telemetry.Tracer("metrocrowd/jobs")

// Refresher serializes refresh cycles and tracks their status.
type Refresher struct {
	cfg  Config
	deps Deps

	run sync.Mutex // held for the duration of a refresh

	mu     sync.RWMutex
	status Status
}

// NewRefresher wires a refresher. Missing optional deps get defaults.
func NewRefresher(cfg Config, deps Deps) *Refresher {
	if deps.ETL == nil {
		deps.ETL = etl.Run
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	return &Refresher{cfg: cfg, deps: deps}
}

// Status returns a copy of the current refresh status.
func (r *Refresher) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Refresh runs one full cycle. Startup triggers bypass the limiter.
func (r *Refresher) Refresh(ctx context.Context, trigger Trigger) (*Status, error) {
	if !r.run.TryLock() {
		metrics.IncRefreshRejected(metrics.ReasonInProgress)
		return nil, ErrRefreshInProgress
	}
	defer r.run.Unlock()

	if trigger.Source != TriggerStartup && r.deps.Limiter != nil && !r.deps.Limiter.Allow(trigger.Client) {
		metrics.IncRefreshRejected(metrics.ReasonThrottled)
		return nil, ErrRefreshThrottled
	}

	r.mu.Lock()
	r.status.Running = true
	r.mu.Unlock()

	runID := r.deps.NewID()
	ctx = xglog.ContextWithJobID(ctx, runID)
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	ctx, span := tracer.Start(ctx, "jobs.refresh")
	defer span.End()

	started := r.deps.Clock()
	logger.Info().
		Str(xglog.FieldEvent, "refresh.start").
		Str("trigger", trigger.Source).
		Msg("starting refresh")

	records, err := r.refresh(ctx, runID, started)
	finished := r.deps.Clock()
	duration := finished.Sub(started)

	r.mu.Lock()
	r.status.Running = false
	r.status.LastRun = finished
	r.status.LastRunID = runID
	r.status.DurationMS = duration.Milliseconds()
	if err != nil {
		r.status.Error = err.Error()
	} else {
		r.status.Error = ""
		r.status.LastOK = finished
		r.status.Records = records
	}
	status := r.status
	r.mu.Unlock()

	outcome := store.RunOK
	if err != nil {
		outcome = store.RunFailed
	}
	metrics.RecordETLRun(outcome, duration)
	span.SetAttributes(telemetry.JobAttributes("refresh", outcome, duration.Milliseconds())...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "refresh.failed").
			Dur("duration", duration).
			Msg("refresh failed")
		return &status, err
	}

	logger.Info().
		Str(xglog.FieldEvent, "refresh.success").
		Int(xglog.FieldRecords, records).
		Dur("duration", duration).
		Msg("refresh completed")
	return &status, nil
}

func (r *Refresher) refresh(ctx context.Context, runID string, started time.Time) (int, error) {
	run := store.Run{
		ID:         runID,
		StartedAt:  started,
		SourceFile: r.cfg.SourceFile,
		Status:     store.RunOK,
	}

	res, err := r.deps.ETL(ctx, etl.Options{
		RawDir:     r.cfg.RawDir,
		SourceFile: r.cfg.SourceFile,
		ReportPath: r.cfg.ReportPath,
	})
	if err != nil {
		r.recordFailure(ctx, run, err)
		return 0, fmt.Errorf("etl: %w", err)
	}

	run.SourceFile = res.SourceFile
	run.Encoding = res.Encoding
	run.Rows = res.Rows
	run.Records = len(res.Records)
	run.Missing = res.Report.Missing
	run.FinishedAt = r.deps.Clock()

	if err := r.deps.Store.ReplaceRecords(ctx, run, res.Records); err != nil {
		r.recordFailure(ctx, run, err)
		return 0, fmt.Errorf("persist: %w", err)
	}
	metrics.RecordETLQuality(res.Report.ParseFailures, res.Report.MissingPct)

	if r.deps.Dataset != nil {
		snap, err := r.deps.Dataset.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("reload dataset: %w", err)
		}
		metrics.RecordDataset(snap.Len(), snap.Generation(), snap.LoadedAt())
	}
	if r.deps.Cache != nil {
		r.deps.Cache.Clear()
	}
	return run.Records, nil
}

// recordFailure stores a failed run. Storage errors are logged, not returned,
// so the original failure reaches the caller.
func (r *Refresher) recordFailure(ctx context.Context, run store.Run, cause error) {
	run.Status = store.RunFailed
	run.Error = cause.Error()
	run.FinishedAt = r.deps.Clock()
	if err := r.deps.Store.RecordRun(ctx, run); err != nil {
		logger := xglog.WithComponentFromContext(ctx, "jobs")
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "refresh.record_failed").
			Str(xglog.FieldRunID, run.ID).
			Msg("could not record failed run")
	}
}
