// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

import (
	"fmt"
	"regexp"
	"strconv"
)

// timeColumnPattern matches source headers such as "5시30분".
var timeColumnPattern = regexp.MustCompile(`^(\d+)시(\d+)분`)

// IsTimeColumn reports whether a CSV header names a 30-minute slot column.
func IsTimeColumn(header string) bool {
	return timeColumnPattern.MatchString(header)
}

// NormalizeTimeSlot converts "5시30분" into "05:30".
// Input that is not a time header is returned unchanged.
func NormalizeTimeSlot(header string) string {
	m := timeColumnPattern.FindStringSubmatch(header)
	if m == nil {
		return header
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return header
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return header
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// SlotHour extracts the hour from a normalised "HH:MM" slot.
func SlotHour(slot string) (int, error) {
	for i := 0; i < len(slot); i++ {
		if slot[i] == ':' {
			return strconv.Atoi(slot[:i])
		}
	}
	return 0, fmt.Errorf("time slot %q: missing ':'", slot)
}

// TimeSlot is a normalised slot label with its position in the source column order.
type TimeSlot struct {
	Raw   string `json:"raw"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// TimeSlots builds the ordered slot list from source headers, keeping only time columns.
func TimeSlots(headers []string) []TimeSlot {
	var slots []TimeSlot
	for _, h := range headers {
		if !IsTimeColumn(h) {
			continue
		}
		slots = append(slots, TimeSlot{
			Raw:   h,
			Label: NormalizeTimeSlot(h),
			Order: len(slots),
		})
	}
	return slots
}
