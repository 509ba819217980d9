// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
)

var errCorruption = errors.New("database corruption detected")

func newVerifyCmd(configPath *string) *cobra.Command {
	var dbPath, mode string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check SQLite database integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				cfg, _, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				dbPath = cfg.Storage.DBPath
			}
			return runVerify(cmd, dbPath, mode)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVar(&mode, "mode", sqlite.ModeQuick, "verification mode: quick or full")
	return cmd
}

func runVerify(cmd *cobra.Command, path, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != sqlite.ModeQuick && mode != sqlite.ModeFull {
		return fmt.Errorf("invalid mode %q: use %s or %s", mode, sqlite.ModeQuick, sqlite.ModeFull)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database not found: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(errOut, "🔍 Verifying integrity of %s (mode: %s)...\n", path, mode)

	issues, err := sqlite.VerifyIntegrity(path, mode)
	if err != nil {
		return fmt.Errorf("verification interrupted: %w", err)
	}
	if issues != nil {
		_, _ = fmt.Fprintln(errOut, "🚨 CORRUPTION DETECTED!")
		for _, issue := range issues {
			_, _ = fmt.Fprintf(errOut, "  - %s\n", issue)
		}
		return errCorruption
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ Integrity Verified: ok")
	return nil
}
