// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the metrocrowd runtime together and manages its
// lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ManuGH/metrocrowd/internal/api"
	"github.com/ManuGH/metrocrowd/internal/cache"
	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/health"
	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/metrics"
	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
	"github.com/ManuGH/metrocrowd/internal/ratelimit"
	"github.com/ManuGH/metrocrowd/internal/store"
	"github.com/ManuGH/metrocrowd/internal/telemetry"
)

// Runtime is a fully wired daemon, ready to Run.
type Runtime struct {
	App       *App
	Manager   Manager
	Server    *api.Server
	Refresher *jobs.Refresher
	Dataset   *dataset.Dataset
	Store     *store.Store
	Health    *health.Manager
}

// Bootstrap checks the environment, opens storage, loads the initial dataset
// and builds the servers. Resources opened here are released by the manager's
// shutdown hooks, or immediately when Bootstrap fails.
func Bootstrap(ctx context.Context, holder *config.ConfigHolder, version string) (_ *Runtime, err error) {
	if holder == nil {
		return nil, ErrMissingConfig
	}
	cfg := holder.Get()
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	var cleanups []namedHook
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i].hook(context.Background())
		}
	}()

	provider, telErr := initTelemetry(ctx, cfg, version)
	if telErr != nil {
		logger.Warn().Err(telErr).Str(log.FieldEvent, "telemetry.init_failed").Msg("telemetry initialization failed, continuing without tracing")
	}
	if provider.Enabled() {
		cleanups = append(cleanups, namedHook{"telemetry", provider.Shutdown})
	}

	st, err := store.Open(cfg.Storage.DBPath, sqlite.Config{
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	cleanups = append(cleanups, namedHook{"store", func(context.Context) error { return st.Close() }})

	responseCache, err := cache.New(cacheConfig(cfg.Cache), log.WithComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	cleanups = append(cleanups, namedHook{"cache", func(context.Context) error { return responseCache.Close() }})

	ds := dataset.New(st)
	refresher := jobs.NewRefresher(jobs.Config{
		RawDir:     cfg.ETL.RawDir,
		SourceFile: cfg.ETL.SourceFile,
		ReportPath: cfg.ETL.ReportPath,
		Debounce:   cfg.Refresh.Debounce,
	}, jobs.Deps{
		Store:   st,
		Dataset: ds,
		Cache:   responseCache,
		Limiter: ratelimit.New(limiterConfig(cfg.Refresh)),
	})

	loadInitialDataset(ctx, cfg, refresher, ds)

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewPingChecker("database", st.Ping))
	hm.RegisterChecker(health.NewFileChecker("database_file", cfg.Storage.DBPath))
	hm.RegisterChecker(health.NewDatasetChecker(func() (int, time.Time) {
		snap := ds.Snapshot()
		return snap.Len(), snap.LoadedAt()
	}))
	hm.RegisterChecker(health.NewSyncChecker(st.Count, func() int { return ds.Snapshot().Len() }))
	hm.RegisterChecker(health.NewLastRunChecker(lastRunStatus(refresher, st)))
	if pinger, ok := responseCache.(interface {
		HealthCheck(ctx context.Context) error
	}); ok {
		hm.RegisterChecker(health.NewOptionalPingChecker("cache", pinger.HealthCheck))
	}

	srv := api.New(api.Deps{
		Dataset:   ds,
		Runs:      st,
		Export:    st,
		Refresher: refresher,
		Cache:     responseCache,
		Health:    hm,
		Config:    holder,
		Version:   version,
	})

	serverCfg, err := config.ParseServerConfigForApp(cfg)
	if err != nil {
		return nil, err
	}
	var metricsHandler http.Handler
	if serverCfg.MetricsListenAddr != "" {
		metricsHandler = promhttp.Handler()
	}

	mgr, err := NewManager(serverCfg, Deps{
		Logger:         logger,
		APIHandler:     srv.Handler(),
		MetricsHandler: metricsHandler,
	})
	if err != nil {
		return nil, err
	}
	for _, c := range cleanups {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}

	logger.Info().
		Str(log.FieldEvent, "startup").
		Str("addr", serverCfg.ListenAddr).
		Str("db", cfg.Storage.DBPath).
		Str("raw_dir", cfg.ETL.RawDir).
		Str("cache", cfg.Cache.Backend).
		Bool("refresh_auth", cfg.API.Token != "").
		Int(log.FieldRecords, ds.Snapshot().Len()).
		Msg("metrocrowd runtime ready")
	if cfg.API.Token == "" {
		logger.Warn().
			Str("security", "weak").
			Msg("API token not configured; POST /refresh is unauthenticated")
	}

	return &Runtime{
		App:       NewApp(logger, mgr, holder, refresher),
		Manager:   mgr,
		Server:    srv,
		Refresher: refresher,
		Dataset:   ds,
		Store:     st,
		Health:    hm,
	}, nil
}

// loadInitialDataset runs the startup refresh and falls back to whatever the
// database already holds. Failures leave an empty snapshot; readiness reports it.
func loadInitialDataset(ctx context.Context, cfg config.AppConfig, refresher *jobs.Refresher, ds *dataset.Dataset) {
	logger := log.WithComponent("daemon")
	if cfg.Refresh.OnStartup {
		status, err := refresher.Refresh(ctx, jobs.Trigger{Source: jobs.TriggerStartup})
		if err == nil {
			logger.Info().
				Str(log.FieldEvent, "startup.refresh_done").
				Int(log.FieldRecords, status.Records).
				Msg("initial refresh completed")
			return
		}
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "startup.refresh_failed").
			Msg("initial refresh failed, serving stored data")
	}

	snap, err := ds.Load(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "startup.load_failed").
			Msg("could not load stored dataset")
		return
	}
	metrics.RecordDataset(snap.Len(), snap.Generation(), snap.LoadedAt())
	if snap.Len() == 0 {
		logger.Warn().
			Str(log.FieldEvent, "startup.empty_dataset").
			Msg("no data loaded; place the CSV in the raw directory or POST /api/v1/refresh")
	}
}

func cacheConfig(c config.CacheSettings) cache.Config {
	return cache.Config{
		Backend:         c.Backend,
		CleanupInterval: c.CleanupInterval,
		Redis: cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
		BadgerPath: c.BadgerPath,
	}
}

func limiterConfig(r config.RefreshSettings) ratelimit.Config {
	lc := ratelimit.DefaultConfig()
	if r.MinInterval > 0 {
		lc.GlobalRate = rate.Every(r.MinInterval)
	}
	if r.Burst > 0 {
		lc.GlobalBurst = r.Burst
	}
	if r.ClientInterval > 0 {
		lc.PerClientRate = rate.Every(r.ClientInterval)
	}
	return lc
}

// initTelemetry installs the tracer provider; a disabled configuration
// installs the noop provider.
func initTelemetry(ctx context.Context, cfg config.AppConfig, version string) (*telemetry.Provider, error) {
	telCfg := telemetry.ConfigFromSettings(cfg.Telemetry, version, "api", "etl")
	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	if !provider.Enabled() {
		return provider, nil
	}

	logger := log.WithComponent("daemon")
	logger.Info().
		Str(log.FieldEvent, "telemetry.enabled").
		Str("endpoint", telCfg.Endpoint).
		Str("exporter", telCfg.Exporter).
		Float64("sampling_rate", telCfg.SamplingRate).
		Msg("telemetry initialized")
	return provider, nil
}

// lastRunStatus reports this process's last refresh, falling back to the
// run history so a restart does not hide a failed run.
func lastRunStatus(refresher *jobs.Refresher, st *store.Store) func(ctx context.Context) (time.Time, string, error) {
	return func(ctx context.Context) (time.Time, string, error) {
		if status := refresher.Status(); !status.LastRun.IsZero() {
			return status.LastRun, status.Error, nil
		}
		run, err := st.LatestRun(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return time.Time{}, "", nil
		case err != nil:
			return time.Time{}, "", err
		}
		return run.FinishedAt, run.Error, nil
	}
}
