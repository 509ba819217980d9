// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command metrocrowd serves the Seoul Metro congestion dashboard and its API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/daemon"
	xglog "github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "metrocrowd",
		Short: "Seoul Metro congestion dashboard and API",
		Long: `metrocrowd loads the Seoul Metro 30-minute congestion CSV into SQLite and
serves filters, statistics and Plotly charts over HTTP together with an
embedded dashboard.

Without a subcommand the server is started.`,
		Version:      version.String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML); defaults to $METROCROWD_CONFIG or <dataDir>/config.yaml")

	root.AddCommand(
		newETLCmd(&configPath),
		newVerifyCmd(&configPath),
		newHealthcheckCmd(),
		newConfigCmd(&configPath),
	)
	return root
}

// resolveConfigPath picks the explicit path, then $METROCROWD_CONFIG, then
// config.yaml in the data directory when it exists.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvPrefix + "CONFIG")); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func loadConfig(explicit string) (config.AppConfig, *config.Loader, error) {
	path := resolveConfigPath(explicit)
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		if path == "" {
			return cfg, nil, err
		}
		return cfg, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, loader, nil
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "metrocrowd",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := loadConfig(configPath)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Msg("failed to load configuration")
		return err
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "metrocrowd",
		Version: version.Version,
	})

	source := "env+defaults"
	if loader.Path() != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(xglog.FieldPath, loader.Path()).
		Str("data_dir", cfg.DataDir).
		Msg("configuration loaded")

	holder := config.NewConfigHolder(cfg, loader)
	rt, err := daemon.Bootstrap(ctx, holder, version.Version)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "startup.failed").
			Msg("startup failed; verify configuration and permissions")
		return err
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Msg("starting metrocrowd")

	if err := rt.App.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("daemon app failed")
		return err
	}

	logger.Info().Msg("server exiting")
	return nil
}
