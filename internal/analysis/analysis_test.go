// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

func rec(station, line, dir, slot string, order int, v null.Float) congestion.Record {
	hour, _ := congestion.SlotHour(slot)
	return congestion.Record{
		Weekday: "평일", Line: line, StationName: station, Direction: dir,
		TimeSlot: slot, TimeOrder: order, Congestion: v, Hour: hour,
		Period: congestion.PeriodForHour(hour), IsMissing: congestion.IsMissingValue(v),
	}
}

func f(v float64) null.Float { return null.FloatFrom(v) }

// fixture: two stations, three slots, one null and one zero.
func fixture() []congestion.Record {
	return []congestion.Record{
		rec("강남", "2호선", "내선", "07:30", 0, f(90)),
		rec("강남", "2호선", "내선", "08:00", 1, f(150)),
		rec("강남", "2호선", "내선", "12:00", 2, f(60)),
		rec("서울역", "1호선", "상선", "07:30", 0, f(150)),
		rec("서울역", "1호선", "상선", "08:00", 1, null.Float{}),
		rec("서울역", "1호선", "상선", "12:00", 2, f(0)),
		rec("잠실", "2호선", "외선", "07:30", 0, f(30)),
		rec("잠실", "2호선", "외선", "08:00", 1, f(30)),
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestMaxCongestion_FirstMaximumWins(t *testing.T) {
	got := MaxCongestion(fixture())
	want := MaxInfo{Value: 150, TimeSlot: "08:00", StationName: "강남", Line: "2호선", Direction: "내선", Weekday: "평일"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MaxCongestion mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxCongestion_NoValidRows(t *testing.T) {
	got := MaxCongestion([]congestion.Record{rec("a", "1호선", "상선", "05:30", 0, f(0))})
	assert.Equal(t, MaxInfo{TimeSlot: "-", StationName: "-", Line: "-", Direction: "-", Weekday: "-"}, got)
}

func TestComputeStats(t *testing.T) {
	got := ComputeStats(fixture())

	// valid: 90 150 60 150 30 30
	mean := 510.0 / 6
	var sq float64
	for _, v := range []float64{90, 150, 60, 150, 30, 30} {
		sq += (v - mean) * (v - mean)
	}
	want := Stats{
		Count:      6,
		Mean:       mean,
		Median:     75,
		Std:        math.Sqrt(sq / 5),
		Min:        30,
		Max:        150,
		MissingPct: 25,
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("ComputeStats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeStats_Edges(t *testing.T) {
	assert.Equal(t, Stats{MissingPct: 100}, ComputeStats(nil))

	one := ComputeStats([]congestion.Record{rec("a", "1호선", "상선", "05:30", 0, f(42))})
	assert.Equal(t, 1, one.Count)
	assert.Zero(t, one.Std, "sample std needs two values")
	assert.InDelta(t, 42, one.Median, 1e-9)
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())
	assert.Equal(t, 8, s.Rows)
	assert.Equal(t, "강남", s.Max.StationName)
	assert.Equal(t, 6, s.Stats.Count)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-9)
	assert.InDelta(t, 4, Quantile(sorted, 1), 1e-9)
	assert.InDelta(t, 7, Quantile([]float64{7}, 0.9), 1e-9)
}
