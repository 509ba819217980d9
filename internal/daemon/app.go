// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/jobs"
	xglog "github.com/ManuGH/metrocrowd/internal/log"
)

// Refresher is the part of jobs.Refresher the daemon drives.
type Refresher interface {
	Refresh(ctx context.Context, trigger jobs.Trigger) (*jobs.Status, error)
	WatchRawDir(ctx context.Context) error
}

// App owns the long-lived runtime (config watcher, raw-dir watcher, reload
// signal) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	refresher    Refresher
	reloadSignal os.Signal
	setLogLevel  func(string) error
}

// NewApp creates a new App orchestrator. cfgHolder and refresher are optional.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, refresher Refresher) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		refresher:    refresher,
		reloadSignal: syscall.SIGHUP,
		setLogLevel:  xglog.SetLevel,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best effort: a broken watcher must not take the server down.
		g.Go(func() error {
			if err := a.cfgHolder.Watch(ctx); err != nil {
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_failed").Msg("config watcher stopped")
			}
			return nil
		})

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		level := a.cfgHolder.Get().LogLevel
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					if cfg.LogLevel == level {
						continue
					}
					if err := a.setLogLevel(cfg.LogLevel); err != nil {
						a.logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
						continue
					}
					a.logger.Info().
						Str(xglog.FieldEvent, "config.log_level_applied").
						Str("old", level).
						Str("new", cfg.LogLevel).
						Msg("log level changed")
					level = cfg.LogLevel
				}
			}
		})
	}

	if a.refresher != nil && a.watchEnabled() {
		g.Go(func() error {
			if err := a.refresher.WatchRawDir(ctx); err != nil {
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "watcher.failed").Msg("raw directory watcher stopped")
			}
			return nil
		})
	}

	if a.reloadSignal != nil && (a.cfgHolder != nil || a.refresher != nil) {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.handleReloadSignal(ctx)
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) watchEnabled() bool {
	if a.cfgHolder == nil {
		return true
	}
	return a.cfgHolder.Get().Refresh.Watch
}

// handleReloadSignal reloads the configuration and then rebuilds the dataset.
func (a *App) handleReloadSignal(ctx context.Context) {
	a.logger.Info().
		Str(xglog.FieldEvent, "reload.signal").
		Str("signal", a.reloadSignal.String()).
		Msg("received reload signal")

	if a.cfgHolder != nil {
		if err := a.cfgHolder.Reload(ctx); err != nil {
			a.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "config.reload_failed").
				Msg("config reload failed")
		}
	}
	if a.refresher == nil {
		return
	}
	if _, err := a.refresher.Refresh(ctx, jobs.Trigger{Source: jobs.TriggerSignal}); err != nil {
		evt := a.logger.Warn()
		if !errors.Is(err, jobs.ErrRefreshInProgress) && !errors.Is(err, jobs.ErrRefreshThrottled) {
			evt = a.logger.Error()
		}
		evt.Err(err).Str(xglog.FieldEvent, "refresh.signal_failed").Msg("signal-triggered refresh failed")
	}
}
