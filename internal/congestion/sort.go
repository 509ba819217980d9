// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

import (
	"sort"
	"strconv"
)

// SortRecords orders records by line, station id, weekday, direction and
// time order. Station ids compare numerically when both parse as integers.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessRecord(records[i], records[j])
	})
}

func lessRecord(a, b Record) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.StationID != b.StationID {
		return lessStationID(a.StationID, b.StationID)
	}
	if a.Weekday != b.Weekday {
		return a.Weekday < b.Weekday
	}
	if a.Direction != b.Direction {
		return a.Direction < b.Direction
	}
	return a.TimeOrder < b.TimeOrder
}

func lessStationID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}

// IsSorted reports whether records are already in SortRecords order.
func IsSorted(records []Record) bool {
	return sort.SliceIsSorted(records, func(i, j int) bool {
		return lessRecord(records[i], records[j])
	})
}
