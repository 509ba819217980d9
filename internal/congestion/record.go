// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package congestion holds the long-format subway congestion record and the
// rules that derive and select records.
package congestion

import (
	"github.com/guregu/null/v5"
)

// Record is one (weekday, line, station, direction, time slot) observation.
type Record struct {
	Weekday     string     `json:"weekday"`
	Line        string     `json:"line"`
	StationID   string     `json:"station_id"`
	StationName string     `json:"station_name"`
	Direction   string     `json:"direction"`
	TimeSlot    string     `json:"time_slot"`
	TimeOrder   int        `json:"time_order"`
	Congestion  null.Float `json:"congestion"`
	Hour        int        `json:"hour"`
	Period      Period     `json:"period"`
	IsMissing   bool       `json:"is_missing"`
}

// Value returns the congestion value, or 0 when it could not be parsed.
func (r Record) Value() float64 {
	return r.Congestion.ValueOrZero()
}

// IsMissingValue reports whether a congestion value counts as missing.
// 0.0 marks slots without service in the source data.
func IsMissingValue(v null.Float) bool {
	return !v.Valid || v.Float64 == 0
}

// StationLabel renders "역 (호선)".
func (r Record) StationLabel() string {
	return r.StationName + " (" + r.Line + ")"
}

// SeriesLabel renders "역 (호선, 방향)".
func (r Record) SeriesLabel() string {
	return r.StationName + " (" + r.Line + ", " + r.Direction + ")"
}

// Valid returns the records that carry a usable congestion value.
func Valid(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsMissing {
			out = append(out, r)
		}
	}
	return out
}
