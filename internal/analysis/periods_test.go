// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

func TestAverageByPeriod(t *testing.T) {
	records := append(fixture(), rec("강남", "2호선", "내선", "06:00", 9, f(10)))
	got := AverageByPeriod(records)

	want := []PeriodAverage{
		{Period: congestion.PeriodEarlyMorning, Average: 10},
		{Period: congestion.PeriodMorningRush, Average: 90},
		{Period: congestion.PeriodAfternoon, Average: 60},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("AverageByPeriod mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageByPeriod_Empty(t *testing.T) {
	assert.Empty(t, AverageByPeriod(nil))
}

func TestPeakHours_ExplicitThreshold(t *testing.T) {
	threshold := 60.0
	got := PeakHours(fixture(), &threshold)

	// slot means: 07:30 → 90, 08:00 → 90, 12:00 → 60
	require.Len(t, got, 3)
	assert.Equal(t, []string{"07:30", "08:00", "12:00"}, []string{got[0].TimeSlot, got[1].TimeSlot, got[2].TimeSlot})
	assert.InDelta(t, 150, got[0].Max, 1e-9)

	higher := 61.0
	assert.Len(t, PeakHours(fixture(), &higher), 2)
}

func TestPeakHours_DefaultThreshold(t *testing.T) {
	records := []congestion.Record{
		rec("a", "1호선", "상선", "05:30", 0, f(10)),
		rec("a", "1호선", "상선", "06:00", 1, f(10)),
		rec("a", "1호선", "상선", "06:30", 2, f(10)),
		rec("a", "1호선", "상선", "08:00", 3, f(100)),
	}
	got := PeakHours(records, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "08:00", got[0].TimeSlot)
	assert.Equal(t, 3, got[0].TimeOrder)
}

func TestPeakHours_OrderedByTimeOrder(t *testing.T) {
	records := []congestion.Record{
		rec("a", "1호선", "상선", "00:00", 5, f(50)),
		rec("a", "1호선", "상선", "23:30", 4, f(50)),
	}
	zero := 0.0
	got := PeakHours(records, &zero)
	require.Len(t, got, 2)
	assert.Equal(t, "23:30", got[0].TimeSlot)
	assert.Equal(t, "00:00", got[1].TimeSlot)
}

func TestPeakHours_Empty(t *testing.T) {
	assert.Empty(t, PeakHours(nil, nil))
}
