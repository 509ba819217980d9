// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	xglog "github.com/ManuGH/metrocrowd/internal/log"
)

// WatchRawDir refreshes after CSV files in the raw directory change. Bursts
// of events are collapsed into one refresh once the directory has been quiet
// for the configured debounce. It blocks until ctx is done.
func (r *Refresher) WatchRawDir(ctx context.Context) error {
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	if r.cfg.RawDir == "" {
		logger.Info().
			Str(xglog.FieldEvent, "watcher.disabled").
			Msg("raw directory watcher disabled (no raw dir configured)")
		return nil
	}
	if err := os.MkdirAll(r.cfg.RawDir, 0o750); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.cfg.RawDir); err != nil {
		return fmt.Errorf("watch raw dir: %w", err)
	}
	logger.Info().
		Str(xglog.FieldEvent, "watcher.started").
		Str(xglog.FieldPath, r.cfg.RawDir).
		Dur("debounce", r.cfg.Debounce).
		Msg("watching raw directory for csv changes")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(xglog.FieldEvent, "watcher.stopped").Msg("raw directory watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCSVChange(event) {
				continue
			}
			logger.Debug().
				Str(xglog.FieldEvent, "watcher.file_changed").
				Str(xglog.FieldPath, event.Name).
				Str("op", event.Op.String()).
				Msg("raw csv changed")
			if timer == nil {
				timer = time.NewTimer(r.cfg.Debounce)
			} else {
				timer.Reset(r.cfg.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if r.refreshFromWatcher(ctx) {
				// The running refresh may have read the file before this
				// change; try again after another quiet period.
				timer.Reset(r.cfg.Debounce)
				fire = timer.C
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "watcher.error").
				Msg("raw directory watcher error")
		}
	}
}

// refreshFromWatcher runs a watcher-triggered refresh. It reports whether the
// refresh should be retried because another one was running.
func (r *Refresher) refreshFromWatcher(ctx context.Context) (retry bool) {
	_, err := r.Refresh(ctx, Trigger{Source: TriggerWatcher})
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrRefreshInProgress):
		logger := xglog.WithComponentFromContext(ctx, "jobs")
		logger.Debug().
			Str(xglog.FieldEvent, "watcher.refresh_deferred").
			Msg("refresh in progress, retrying after debounce")
		return true
	case errors.Is(err, ErrRefreshThrottled):
		logger := xglog.WithComponentFromContext(ctx, "jobs")
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "watcher.refresh_skipped").
			Msg("refresh after raw csv change skipped")
		return false
	default:
		// Refresh already logged the failure.
		return false
	}
}

func isCSVChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".csv")
}
