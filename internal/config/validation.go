// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/metrocrowd/internal/validate"
)

// Validate validates an AppConfig. The data directory is created when missing.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of trace, debug, info, warn, error", cfg.LogLevel)
	}
	v.Directory("DataDir", cfg.DataDir, false)
	v.NotEmpty("Storage.DBPath", cfg.Storage.DBPath)
	v.NonNegative("Storage.BusyTimeout", cfg.Storage.BusyTimeout)
	v.Range("Storage.MaxOpenConns", cfg.Storage.MaxOpenConns, 1, 64)

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	if cfg.API.MetricsListenAddr != "" {
		v.ListenAddr("API.MetricsListenAddr", cfg.API.MetricsListenAddr)
	}
	if cfg.API.RateLimit.Enabled {
		v.Range("API.RateLimit.Requests", cfg.API.RateLimit.Requests, 1, 100000)
		v.Positive("API.RateLimit.Window", cfg.API.RateLimit.Window)
	}

	v.Positive("Refresh.Debounce", cfg.Refresh.Debounce)
	v.NonNegative("Refresh.MinInterval", cfg.Refresh.MinInterval)
	v.NonNegative("Refresh.ClientInterval", cfg.Refresh.ClientInterval)
	v.Range("Refresh.Burst", cfg.Refresh.Burst, 1, 100)

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{CacheMemory, CacheRedis, CacheBadger, CacheNone})
	v.NonNegative("Cache.TTL", cfg.Cache.TTL)
	v.NonNegative("Cache.CleanupInterval", cfg.Cache.CleanupInterval)
	if cfg.Cache.Backend == CacheRedis {
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
		v.Range("Cache.RedisDB", cfg.Cache.RedisDB, 0, 15)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	v.Positive("Server.ReadTimeout", cfg.Server.ReadTimeout)
	v.NonNegative("Server.WriteTimeout", cfg.Server.WriteTimeout)
	v.Positive("Server.IdleTimeout", cfg.Server.IdleTimeout)
	v.Positive("Server.ShutdownTimeout", cfg.Server.ShutdownTimeout)

	return v.Err()
}
