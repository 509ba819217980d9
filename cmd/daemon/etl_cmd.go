// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
	"github.com/ManuGH/metrocrowd/internal/store"
)

type etlFlags struct {
	rawDir string
	source string
	dbPath string
	report string
}

func newETLCmd(configPath *string) *cobra.Command {
	var f etlFlags
	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Run the ETL pipeline once and store the result",
		Long: `Reads the congestion CSV (CP949 or UTF-8), normalises it into one record per
time slot, writes the quality report and replaces the records in SQLite.
The run is recorded in the run history whether it succeeds or not.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runETL(cmd, *configPath, f)
		},
	}
	cmd.Flags().StringVar(&f.rawDir, "raw", "", "directory searched for the source CSV")
	cmd.Flags().StringVar(&f.source, "source", "", "explicit source CSV (overrides --raw)")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&f.report, "report", "", "quality report output path")
	return cmd
}

func runETL(cmd *cobra.Command, configPath string, f etlFlags) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if f.rawDir != "" {
		cfg.ETL.RawDir = f.rawDir
	}
	if f.source != "" {
		cfg.ETL.SourceFile = f.source
	}
	if f.dbPath != "" {
		cfg.Storage.DBPath = f.dbPath
	}
	if f.report != "" {
		cfg.ETL.ReportPath = f.report
	}

	st, err := store.Open(cfg.Storage.DBPath, sqlite.Config{
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	r := jobs.NewRefresher(jobs.Config{
		RawDir:     cfg.ETL.RawDir,
		SourceFile: cfg.ETL.SourceFile,
		ReportPath: cfg.ETL.ReportPath,
	}, jobs.Deps{Store: st})

	status, err := r.Refresh(cmd.Context(), jobs.Trigger{Source: jobs.TriggerCLI})
	if err != nil {
		return fmt.Errorf("etl failed: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "✅ %d records written to %s\n", status.Records, cfg.Storage.DBPath)
	_, _ = fmt.Fprintf(out, "   run %s (%d ms)\n", status.LastRunID, status.DurationMS)
	if cfg.ETL.ReportPath != "" {
		_, _ = fmt.Fprintf(out, "   report: %s\n", cfg.ETL.ReportPath)
	}
	return nil
}
