// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/metrocrowd/internal/config"
)

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate or inspect the configuration",
	}
	cmd.AddCommand(newConfigValidateCmd(configPath), newConfigDumpCmd(configPath))
	return cmd
}

func newConfigValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration (defaults + file + env)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loader, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			source := loader.Path()
			if source == "" {
				source = "environment and defaults"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", source)
			return nil
		},
	}
}

func newConfigDumpCmd(configPath *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			fileCfg := fileConfigFromAppConfig(cfg)
			redactFileConfigSecrets(&fileCfg)

			out := cmd.OutOrStdout()
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "yaml", "yml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(fileCfg); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(fileCfg)
			default:
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func durationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// fileConfigFromAppConfig renders a resolved config in the file layout so the
// dump can be saved and loaded again.
func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	maxOpen := cfg.Storage.MaxOpenConns
	rlEnabled := cfg.API.RateLimit.Enabled
	rlRequests := cfg.API.RateLimit.Requests
	onStartup := cfg.Refresh.OnStartup
	watch := cfg.Refresh.Watch
	burst := cfg.Refresh.Burst
	redisDB := cfg.Cache.RedisDB
	telEnabled := cfg.Telemetry.Enabled
	sampling := cfg.Telemetry.SamplingRate
	maxHeader := cfg.Server.MaxHeaderBytes

	return config.FileConfig{
		DataDir:  cfg.DataDir,
		LogLevel: cfg.LogLevel,
		ETL: config.ETLFileConfig{
			RawDir:     cfg.ETL.RawDir,
			SourceFile: cfg.ETL.SourceFile,
			ReportPath: cfg.ETL.ReportPath,
		},
		Storage: config.StorageFileConfig{
			DBPath:       cfg.Storage.DBPath,
			BusyTimeout:  durationString(cfg.Storage.BusyTimeout),
			MaxOpenConns: &maxOpen,
		},
		API: config.APIFileConfig{
			ListenAddr:        cfg.API.ListenAddr,
			Bind:              cfg.API.Bind,
			MetricsListenAddr: cfg.API.MetricsListenAddr,
			Token:             cfg.API.Token,
			CORSOrigins:       cfg.API.CORSOrigins,
			RateLimit: config.RateLimitFileConfig{
				Enabled:  &rlEnabled,
				Requests: &rlRequests,
				Window:   durationString(cfg.API.RateLimit.Window),
			},
		},
		Refresh: config.RefreshFileConfig{
			OnStartup:      &onStartup,
			Watch:          &watch,
			Debounce:       durationString(cfg.Refresh.Debounce),
			MinInterval:    durationString(cfg.Refresh.MinInterval),
			Burst:          &burst,
			ClientInterval: durationString(cfg.Refresh.ClientInterval),
		},
		Cache: config.CacheFileConfig{
			Backend:         cfg.Cache.Backend,
			TTL:             durationString(cfg.Cache.TTL),
			CleanupInterval: durationString(cfg.Cache.CleanupInterval),
			Redis: config.RedisFileConfig{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       &redisDB,
				Prefix:   cfg.Cache.RedisPrefix,
			},
			BadgerPath: cfg.Cache.BadgerPath,
		},
		Telemetry: config.TelemetryFileConfig{
			Enabled:      &telEnabled,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &sampling,
			Environment:  cfg.Telemetry.Environment,
		},
		Server: config.ServerFileConfig{
			ReadTimeout:     durationString(cfg.Server.ReadTimeout),
			WriteTimeout:    durationString(cfg.Server.WriteTimeout),
			IdleTimeout:     durationString(cfg.Server.IdleTimeout),
			MaxHeaderBytes:  &maxHeader,
			ShutdownTimeout: durationString(cfg.Server.ShutdownTimeout),
		},
	}
}

func redactFileConfigSecrets(cfg *config.FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.API.Token != "" {
		cfg.API.Token = "***"
	}
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = "***"
	}
}
