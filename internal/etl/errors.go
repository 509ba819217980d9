// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCSV is returned when the raw directory holds no CSV file.
	ErrNoCSV = errors.New("no csv file in raw directory")

	// ErrUnknownEncoding is returned when the input is neither UTF-8 nor CP949.
	ErrUnknownEncoding = errors.New("unrecognised csv encoding")

	// ErrMissingColumn is returned when a required ID column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")

	// ErrNoTimeColumns is returned when the header has no "H시M분" columns.
	ErrNoTimeColumns = errors.New("no time columns in header")
)

// MissingColumnError names the absent column. It matches ErrMissingColumn.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
