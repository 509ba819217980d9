// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"time"
)

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

// mergeFileConfig overlays the values present in the file onto cfg.
func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.LogLevel, f.LogLevel)

	setString(&cfg.ETL.RawDir, f.ETL.RawDir)
	setString(&cfg.ETL.SourceFile, f.ETL.SourceFile)
	setString(&cfg.ETL.ReportPath, f.ETL.ReportPath)

	setString(&cfg.Storage.DBPath, f.Storage.DBPath)
	setPtr(&cfg.Storage.MaxOpenConns, f.Storage.MaxOpenConns)

	setString(&cfg.API.ListenAddr, f.API.ListenAddr)
	setString(&cfg.API.Bind, f.API.Bind)
	setString(&cfg.API.MetricsListenAddr, f.API.MetricsListenAddr)
	setString(&cfg.API.Token, f.API.Token)
	if len(f.API.CORSOrigins) > 0 {
		cfg.API.CORSOrigins = append([]string(nil), f.API.CORSOrigins...)
	}
	setPtr(&cfg.API.RateLimit.Enabled, f.API.RateLimit.Enabled)
	setPtr(&cfg.API.RateLimit.Requests, f.API.RateLimit.Requests)

	setPtr(&cfg.Refresh.OnStartup, f.Refresh.OnStartup)
	setPtr(&cfg.Refresh.Watch, f.Refresh.Watch)
	setPtr(&cfg.Refresh.Burst, f.Refresh.Burst)

	setString(&cfg.Cache.Backend, f.Cache.Backend)
	setString(&cfg.Cache.RedisAddr, f.Cache.Redis.Addr)
	setString(&cfg.Cache.RedisPassword, f.Cache.Redis.Password)
	setPtr(&cfg.Cache.RedisDB, f.Cache.Redis.DB)
	setString(&cfg.Cache.RedisPrefix, f.Cache.Redis.Prefix)
	setString(&cfg.Cache.BadgerPath, f.Cache.BadgerPath)

	setPtr(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	setPtr(&cfg.Telemetry.SamplingRate, f.Telemetry.SamplingRate)
	setString(&cfg.Telemetry.Environment, f.Telemetry.Environment)

	setPtr(&cfg.Server.MaxHeaderBytes, f.Server.MaxHeaderBytes)

	return errors.Join(
		setDuration(&cfg.Storage.BusyTimeout, "storage.busyTimeout", f.Storage.BusyTimeout),
		setDuration(&cfg.API.RateLimit.Window, "api.rateLimit.window", f.API.RateLimit.Window),
		setDuration(&cfg.Refresh.Debounce, "refresh.debounce", f.Refresh.Debounce),
		setDuration(&cfg.Refresh.MinInterval, "refresh.minInterval", f.Refresh.MinInterval),
		setDuration(&cfg.Refresh.ClientInterval, "refresh.clientInterval", f.Refresh.ClientInterval),
		setDuration(&cfg.Cache.TTL, "cache.ttl", f.Cache.TTL),
		setDuration(&cfg.Cache.CleanupInterval, "cache.cleanupInterval", f.Cache.CleanupInterval),
		setDuration(&cfg.Server.ReadTimeout, "server.readTimeout", f.Server.ReadTimeout),
		setDuration(&cfg.Server.WriteTimeout, "server.writeTimeout", f.Server.WriteTimeout),
		setDuration(&cfg.Server.IdleTimeout, "server.idleTimeout", f.Server.IdleTimeout),
		setDuration(&cfg.Server.ShutdownTimeout, "server.shutdownTimeout", f.Server.ShutdownTimeout),
	)
}

// mergeEnvConfig applies METROCROWD_* overrides. The current value acts as
// the default so unset variables keep file or built-in values.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)

	cfg.ETL.RawDir = l.envString("RAW_DIR", cfg.ETL.RawDir)
	cfg.ETL.SourceFile = l.envString("SOURCE_FILE", cfg.ETL.SourceFile)
	cfg.ETL.ReportPath = l.envString("REPORT_PATH", cfg.ETL.ReportPath)

	cfg.Storage.DBPath = l.envString("DB_PATH", cfg.Storage.DBPath)
	cfg.Storage.BusyTimeout = l.envDuration("DB_BUSY_TIMEOUT", cfg.Storage.BusyTimeout)
	cfg.Storage.MaxOpenConns = l.envInt("DB_MAX_OPEN_CONNS", cfg.Storage.MaxOpenConns)

	cfg.API.ListenAddr = l.envString("LISTEN", cfg.API.ListenAddr)
	cfg.API.Bind = l.envString("BIND", cfg.API.Bind)
	cfg.API.MetricsListenAddr = l.envString("METRICS_LISTEN", cfg.API.MetricsListenAddr)
	cfg.API.Token = l.envString("API_TOKEN", cfg.API.Token)
	cfg.API.CORSOrigins = l.envList("CORS_ORIGINS", cfg.API.CORSOrigins)
	cfg.API.RateLimit.Enabled = l.envBool("RATELIMIT_ENABLED", cfg.API.RateLimit.Enabled)
	cfg.API.RateLimit.Requests = l.envInt("RATELIMIT_REQUESTS", cfg.API.RateLimit.Requests)
	cfg.API.RateLimit.Window = l.envDuration("RATELIMIT_WINDOW", cfg.API.RateLimit.Window)

	cfg.Refresh.OnStartup = l.envBool("REFRESH_ON_STARTUP", cfg.Refresh.OnStartup)
	cfg.Refresh.Watch = l.envBool("REFRESH_WATCH", cfg.Refresh.Watch)
	cfg.Refresh.Debounce = l.envDuration("REFRESH_DEBOUNCE", cfg.Refresh.Debounce)
	cfg.Refresh.MinInterval = l.envDuration("REFRESH_MIN_INTERVAL", cfg.Refresh.MinInterval)
	cfg.Refresh.Burst = l.envInt("REFRESH_BURST", cfg.Refresh.Burst)
	cfg.Refresh.ClientInterval = l.envDuration("REFRESH_CLIENT_INTERVAL", cfg.Refresh.ClientInterval)

	cfg.Cache.Backend = l.envString("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.CleanupInterval = l.envDuration("CACHE_CLEANUP_INTERVAL", cfg.Cache.CleanupInterval)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.RedisPrefix = l.envString("REDIS_PREFIX", cfg.Cache.RedisPrefix)
	cfg.Cache.BadgerPath = l.envString("BADGER_PATH", cfg.Cache.BadgerPath)

	cfg.Telemetry.Enabled = l.envBool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("ENVIRONMENT", cfg.Telemetry.Environment)

	cfg.Server.ReadTimeout = l.envDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = l.envInt("SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = l.envDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
}
