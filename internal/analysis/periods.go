// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"sort"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// PeriodAverage is the mean congestion of one day-part.
type PeriodAverage struct {
	Period  congestion.Period `json:"period"`
	Average float64           `json:"avg_congestion"`
}

// AverageByPeriod returns the mean per period present, in display order.
func AverageByPeriod(records []congestion.Record) []PeriodAverage {
	sums := map[congestion.Period]float64{}
	counts := map[congestion.Period]int{}
	for _, r := range records {
		if r.IsMissing {
			continue
		}
		sums[r.Period] += r.Value()
		counts[r.Period]++
	}

	out := make([]PeriodAverage, 0, len(counts))
	for _, p := range congestion.PeriodOrder {
		if c := counts[p]; c > 0 {
			out = append(out, PeriodAverage{Period: p, Average: sums[p] / float64(c)})
		}
	}
	return out
}

// PeakHour is a time slot whose mean congestion reaches the threshold.
type PeakHour struct {
	TimeSlot  string  `json:"time_slot"`
	TimeOrder int     `json:"time_order"`
	Average   float64 `json:"avg_congestion"`
	Max       float64 `json:"max_congestion"`
}

// PeakHours returns the slots whose mean is at least threshold, in time
// order. A nil threshold defaults to mean + sample std of all valid values.
func PeakHours(records []congestion.Record, threshold *float64) []PeakHour {
	type slotAcc struct {
		order    int
		sum, max float64
		count    int
	}
	slots := map[string]*slotAcc{}
	var keys []string
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.IsMissing {
			continue
		}
		v := r.Value()
		values = append(values, v)
		acc, ok := slots[r.TimeSlot]
		if !ok {
			acc = &slotAcc{order: r.TimeOrder, max: v}
			slots[r.TimeSlot] = acc
			keys = append(keys, r.TimeSlot)
		}
		acc.sum += v
		acc.count++
		if v > acc.max {
			acc.max = v
		}
	}
	if len(values) == 0 {
		return []PeakHour{}
	}

	limit := 0.0
	if threshold != nil {
		limit = *threshold
	} else {
		mean, std := meanStd(values)
		limit = mean + std
	}

	out := []PeakHour{}
	for _, k := range keys {
		acc := slots[k]
		avg := acc.sum / float64(acc.count)
		if avg >= limit {
			out = append(out, PeakHour{TimeSlot: k, TimeOrder: acc.order, Average: avg, Max: acc.max})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeOrder < out[j].TimeOrder
	})
	return out
}
