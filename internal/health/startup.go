// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/etl"
	"github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
)

// PerformStartupChecks validates the environment before the server starts.
// A missing source CSV is only a warning: an existing database keeps serving.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponentFromContext(ctx, "startup-check")
	logger.Info().Str(log.FieldEvent, "startup.checks_begin").Msg("running pre-flight startup checks")

	if err := checkWritableDir(cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkSource(logger, cfg.ETL); err != nil {
		return fmt.Errorf("source check failed: %w", err)
	}
	if err := checkDatabase(logger, cfg.Storage.DBPath); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str(log.FieldPath, cfg.DataDir).
			Msg("data directory is under temp; the database may be lost on reboot")
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	probe := filepath.Join(path, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(probe)
	return nil
}

func checkSource(logger zerolog.Logger, cfg config.ETLSettings) error {
	if cfg.SourceFile != "" {
		f, err := os.Open(cfg.SourceFile) // #nosec G304 -- operator-provided path
		if err != nil {
			return err
		}
		return f.Close()
	}

	if err := os.MkdirAll(cfg.RawDir, 0o750); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	source, err := etl.FindCSV(cfg.RawDir)
	if errors.Is(err, etl.ErrNoCSV) {
		logger.Warn().
			Str(log.FieldEvent, "startup.no_source").
			Str(log.FieldPath, cfg.RawDir).
			Msg("no source csv yet; drop one into the raw directory to build the dataset")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info().Str(log.FieldSourceFile, source).Msg("source csv found")
	return nil
}

func checkDatabase(logger zerolog.Logger, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info().Str(log.FieldPath, path).Msg("database will be created")
		return nil
	}
	problems, err := sqlite.VerifyIntegrity(path, sqlite.ModeQuick)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("integrity check reported %d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}
	logger.Info().Str(log.FieldPath, path).Msg("database integrity ok")
	return nil
}
