// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// AllWeekdays is the sentinel weekday selection meaning "no weekday constraint".
const AllWeekdays = "전체"

// TimeRange is an inclusive range of time orders.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether order lies within the range.
func (tr TimeRange) Contains(order int) bool {
	return order >= tr.Start && order <= tr.End
}

// Filter selects records. Zero-valued fields do not constrain.
type Filter struct {
	Weekday    string     `json:"weekday,omitempty"`
	Lines      []string   `json:"lines,omitempty"`
	Stations   []string   `json:"stations,omitempty"`
	Directions []string   `json:"directions,omitempty"`
	TimeRange  *TimeRange `json:"time_range,omitempty"`
}

// HasWeekday reports whether the weekday selection constrains results.
func (f Filter) HasWeekday() bool {
	return f.Weekday != "" && f.Weekday != AllWeekdays
}

// Match reports whether r passes every constraint of f.
func (f Filter) Match(r Record) bool {
	if f.HasWeekday() && r.Weekday != f.Weekday {
		return false
	}
	if len(f.Lines) > 0 && !contains(f.Lines, r.Line) {
		return false
	}
	if len(f.Stations) > 0 && !contains(f.Stations, r.StationName) {
		return false
	}
	if len(f.Directions) > 0 && !contains(f.Directions, r.Direction) {
		return false
	}
	if f.TimeRange != nil && !f.TimeRange.Contains(r.TimeOrder) {
		return false
	}
	return true
}

// Apply returns a new slice holding the matching records in input order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Key returns a canonical representation used for cache keys.
// Selections are order-insensitive.
func (f Filter) Key() string {
	v := url.Values{}
	if f.HasWeekday() {
		v.Set("weekday", f.Weekday)
	}
	for name, list := range map[string][]string{
		"line":      f.Lines,
		"station":   f.Stations,
		"direction": f.Directions,
	} {
		if len(list) == 0 {
			continue
		}
		sorted := append([]string(nil), list...)
		sort.Strings(sorted)
		v[name] = sorted
	}
	if f.TimeRange != nil {
		v.Set("range", strconv.Itoa(f.TimeRange.Start)+"-"+strconv.Itoa(f.TimeRange.End))
	}
	return v.Encode()
}

func contains(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

// SplitList splits comma separated values and drops empty entries.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
