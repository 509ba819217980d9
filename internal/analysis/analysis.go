// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package analysis computes congestion KPIs over filtered records.
// Every function ignores records flagged as missing.
package analysis

import (
	"math"
	"sort"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// Placeholder is used for labels when no valid record exists.
const Placeholder = "-"

// MaxInfo describes the single most congested observation.
type MaxInfo struct {
	Value       float64 `json:"max_value"`
	TimeSlot    string  `json:"time_slot"`
	StationName string  `json:"station_name"`
	Line        string  `json:"line"`
	Direction   string  `json:"direction"`
	Weekday     string  `json:"weekday"`
}

// MaxCongestion returns the first record holding the maximum value.
func MaxCongestion(records []congestion.Record) MaxInfo {
	var best *congestion.Record
	for i := range records {
		r := &records[i]
		if r.IsMissing {
			continue
		}
		if best == nil || r.Value() > best.Value() {
			best = r
		}
	}
	if best == nil {
		return MaxInfo{
			TimeSlot: Placeholder, StationName: Placeholder, Line: Placeholder,
			Direction: Placeholder, Weekday: Placeholder,
		}
	}
	return MaxInfo{
		Value:       best.Value(),
		TimeSlot:    best.TimeSlot,
		StationName: best.StationName,
		Line:        best.Line,
		Direction:   best.Direction,
		Weekday:     best.Weekday,
	}
}

// Stats summarises the congestion distribution.
type Stats struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Std        float64 `json:"std"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	MissingPct float64 `json:"missing_pct"`
}

// ComputeStats returns count, mean, median, sample standard deviation,
// min, max and the missing share over all input records.
func ComputeStats(records []congestion.Record) Stats {
	values := validValues(records)
	if len(values) == 0 {
		return Stats{MissingPct: 100}
	}
	sort.Float64s(values)

	mean, std := meanStd(values)
	return Stats{
		Count:      len(values),
		Mean:       mean,
		Median:     Quantile(values, 0.5),
		Std:        std,
		Min:        values[0],
		Max:        values[len(values)-1],
		MissingPct: float64(len(records)-len(values)) / float64(len(records)) * 100,
	}
}

// Summary bundles the KPI card values for a filter.
type Summary struct {
	Rows  int     `json:"rows"`
	Max   MaxInfo `json:"max"`
	Stats Stats   `json:"stats"`
}

// Summarize computes the KPI summary.
func Summarize(records []congestion.Record) Summary {
	return Summary{
		Rows:  len(records),
		Max:   MaxCongestion(records),
		Stats: ComputeStats(records),
	}
}

func validValues(records []congestion.Record) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if !r.IsMissing {
			values = append(values, r.Value())
		}
	}
	return values
}

// meanStd returns the mean and the sample standard deviation (0 below two values).
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks. sorted must be non-empty.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
