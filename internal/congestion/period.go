// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

// Period is a coarse day-part bucket.
type Period string

const (
	PeriodLateNight    Period = "심야"
	PeriodEarlyMorning Period = "새벽"
	PeriodMorningRush  Period = "출근"
	PeriodMorning      Period = "오전"
	PeriodAfternoon    Period = "오후"
	PeriodEveningRush  Period = "퇴근"
	PeriodEvening      Period = "저녁"
	PeriodOther        Period = "기타"
)

// PeriodOrder is the display order used by period summaries.
var PeriodOrder = []Period{
	PeriodEarlyMorning,
	PeriodMorningRush,
	PeriodMorning,
	PeriodAfternoon,
	PeriodEveningRush,
	PeriodEvening,
	PeriodLateNight,
	PeriodOther,
}

// PeriodForHour classifies an hour of the service day.
// Hours 1-4 carry no scheduled service and fall into PeriodOther.
func PeriodForHour(hour int) Period {
	switch {
	case hour == 0:
		return PeriodLateNight
	case hour >= 5 && hour < 7:
		return PeriodEarlyMorning
	case hour >= 7 && hour < 9:
		return PeriodMorningRush
	case hour >= 9 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 18:
		return PeriodAfternoon
	case hour >= 18 && hour < 20:
		return PeriodEveningRush
	case hour >= 20 && hour < 24:
		return PeriodEvening
	default:
		return PeriodOther
	}
}

// Rank returns the position of p in PeriodOrder.
func (p Period) Rank() int {
	for i, candidate := range PeriodOrder {
		if candidate == p {
			return i
		}
	}
	return len(PeriodOrder)
}
