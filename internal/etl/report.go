// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

import (
	"sort"

	"github.com/guregu/null/v5"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// Report summarises a cleaned dataset for operators.
type Report struct {
	TotalRows     int        `json:"total_rows"`
	TimeSlots     int        `json:"time_slots"`
	Lines         []string   `json:"lines"`
	Weekdays      []string   `json:"weekdays"`
	Stations      int        `json:"stations"`
	ParseFailures int        `json:"parse_failures"`
	Missing       int        `json:"missing"`
	MissingPct    float64    `json:"missing_pct"`
	Over100       int        `json:"over_100"`
	Over100Pct    float64    `json:"over_100_pct"`
	MinCongestion null.Float `json:"min_congestion"`
	MaxCongestion null.Float `json:"max_congestion"`

	// GroupSizes maps a (weekday, line, station, direction) group size to
	// the number of groups with that size. One entry means consistent groups.
	GroupSizes      map[int]int `json:"group_sizes"`
	GroupConsistent bool        `json:"group_consistent"`
}

type groupKey struct {
	weekday, line, station, direction string
}

// Validate computes the dataset report. parseFailures is carried through
// from Parse.
func Validate(records []congestion.Record, parseFailures int) Report {
	rep := Report{
		TotalRows:     len(records),
		ParseFailures: parseFailures,
		Lines:         []string{},
		Weekdays:      []string{},
		GroupSizes:    map[int]int{},
	}

	slots := make(map[string]struct{})
	lines := make(map[string]struct{})
	weekdays := make(map[string]struct{})
	stations := make(map[string]struct{})
	groups := make(map[groupKey]int)

	for _, r := range records {
		slots[r.TimeSlot] = struct{}{}
		lines[r.Line] = struct{}{}
		if _, seen := weekdays[r.Weekday]; !seen {
			weekdays[r.Weekday] = struct{}{}
			rep.Weekdays = append(rep.Weekdays, r.Weekday)
		}
		stations[r.StationName] = struct{}{}
		groups[groupKey{r.Weekday, r.Line, r.StationName, r.Direction}]++

		if r.IsMissing {
			rep.Missing++
		}
		if !r.Congestion.Valid {
			continue
		}
		v := r.Congestion.Float64
		if v > 100 {
			rep.Over100++
		}
		if !rep.MinCongestion.Valid || v < rep.MinCongestion.Float64 {
			rep.MinCongestion = null.FloatFrom(v)
		}
		if !rep.MaxCongestion.Valid || v > rep.MaxCongestion.Float64 {
			rep.MaxCongestion = null.FloatFrom(v)
		}
	}

	rep.TimeSlots = len(slots)
	rep.Stations = len(stations)
	for l := range lines {
		rep.Lines = append(rep.Lines, l)
	}
	sort.Strings(rep.Lines)
	for _, n := range groups {
		rep.GroupSizes[n]++
	}
	rep.GroupConsistent = len(rep.GroupSizes) <= 1

	if rep.TotalRows > 0 {
		rep.MissingPct = float64(rep.Missing) / float64(rep.TotalRows) * 100
		rep.Over100Pct = float64(rep.Over100) / float64(rep.TotalRows) * 100
	}
	return rep
}
