// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindCSV returns the lexicographically first *.csv file in dir.
func FindCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read raw dir %s: %w", dir, err)
	}
	// os.ReadDir returns entries sorted by filename.
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoCSV, dir)
}
