// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/validate"
)

func validConfig(t *testing.T) AppConfig {
	t.Helper()
	cfg := Defaults()
	cfg.DataDir = t.TempDir()
	resolvePaths(&cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad listen", func(c *AppConfig) { c.API.ListenAddr = "8080" }, "API.ListenAddr"},
		{"bad metrics listen", func(c *AppConfig) { c.API.MetricsListenAddr = "nope" }, "API.MetricsListenAddr"},
		{"zero rate limit", func(c *AppConfig) { c.API.RateLimit.Requests = 0 }, "API.RateLimit.Requests"},
		{"zero debounce", func(c *AppConfig) { c.Refresh.Debounce = 0 }, "Refresh.Debounce"},
		{"zero burst", func(c *AppConfig) { c.Refresh.Burst = 0 }, "Refresh.Burst"},
		{"unknown cache", func(c *AppConfig) { c.Cache.Backend = "memcached" }, "Cache.Backend"},
		{"redis without addr", func(c *AppConfig) { c.Cache.Backend = CacheRedis }, "Cache.RedisAddr"},
		{"negative ttl", func(c *AppConfig) { c.Cache.TTL = -time.Second }, "Cache.TTL"},
		{"bad exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "Telemetry.Exporter"},
		{"bad sampling", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.SamplingRate = 2 }, "Telemetry.SamplingRate"},
		{"too many conns", func(c *AppConfig) { c.Storage.MaxOpenConns = 0 }, "Storage.MaxOpenConns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.Error(t, err)
			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, Validate(cfg))

	// disabled rate limit and telemetry are not checked
	cfg.API.RateLimit = RateLimitSettings{}
	cfg.Telemetry = TelemetrySettings{Exporter: "zipkin"}
	assert.NoError(t, Validate(cfg))

	cfg.Cache.Backend = CacheRedis
	cfg.Cache.RedisAddr = "localhost:6379"
	assert.NoError(t, Validate(cfg))

	cfg.DataDir = filepath.Join(cfg.DataDir, "nested", "dir")
	assert.NoError(t, Validate(cfg))
	assert.DirExists(t, cfg.DataDir)
}
