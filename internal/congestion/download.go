// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

import (
	"sort"

	"github.com/guregu/null/v5"
)

// DownloadColumns is the header of the CSV export.
var DownloadColumns = []string{
	"weekday", "line", "station_name", "direction",
	"time_slot", "congestion", "hour", "period",
}

// DownloadRow is one line of the CSV export.
type DownloadRow struct {
	Weekday     string     `json:"weekday"`
	Line        string     `json:"line"`
	StationName string     `json:"station_name"`
	Direction   string     `json:"direction"`
	TimeSlot    string     `json:"time_slot"`
	Congestion  null.Float `json:"congestion"`
	Hour        int        `json:"hour"`
	Period      Period     `json:"period"`
}

// DownloadRowOf projects a record onto the export columns.
func DownloadRowOf(r Record) DownloadRow {
	return DownloadRow{
		Weekday:     r.Weekday,
		Line:        r.Line,
		StationName: r.StationName,
		Direction:   r.Direction,
		TimeSlot:    r.TimeSlot,
		Congestion:  r.Congestion,
		Hour:        r.Hour,
		Period:      r.Period,
	}
}

// SortDownloadRows orders rows by line, station name, weekday, direction and
// time slot, all compared as strings.
func SortDownloadRows(rows []DownloadRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.StationName != b.StationName {
			return a.StationName < b.StationName
		}
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		return a.TimeSlot < b.TimeSlot
	})
}
