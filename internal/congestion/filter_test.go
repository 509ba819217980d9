// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package congestion

import (
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
)

func sampleRecords() []Record {
	mk := func(weekday, line, station, dir string, order int, v float64) Record {
		return Record{
			Weekday:     weekday,
			Line:        line,
			StationName: station,
			Direction:   dir,
			TimeOrder:   order,
			Congestion:  null.FloatFrom(v),
		}
	}
	return []Record{
		mk("평일", "1호선", "서울역", "상선", 0, 10),
		mk("평일", "1호선", "서울역", "하선", 1, 20),
		mk("토요일", "2호선", "강남", "내선", 2, 30),
		mk("일요일", "2호선", "강남", "외선", 3, 40),
	}
}

func TestFilter_ZeroValueMatchesAll(t *testing.T) {
	records := sampleRecords()
	assert.Len(t, Filter{}.Apply(records), len(records))
	assert.Len(t, Filter{Weekday: AllWeekdays}.Apply(records), len(records))
}

func TestFilter_Constraints(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"weekday", Filter{Weekday: "평일"}, 2},
		{"lines", Filter{Lines: []string{"2호선"}}, 2},
		{"stations", Filter{Stations: []string{"서울역", "강남"}}, 4},
		{"directions", Filter{Directions: []string{"상선", "외선"}}, 2},
		{"time range inclusive", Filter{TimeRange: &TimeRange{Start: 1, End: 2}}, 2},
		{"combined", Filter{Weekday: "평일", Directions: []string{"하선"}}, 1},
		{"no match", Filter{Lines: []string{"9호선"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.filter.Apply(records), tt.want)
		})
	}
}

func TestFilter_ApplyDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := append([]Record(nil), records...)
	_ = Filter{Weekday: "평일"}.Apply(records)
	assert.Equal(t, before, records)
}

func TestFilter_KeyIsOrderInsensitive(t *testing.T) {
	a := Filter{Lines: []string{"2호선", "1호선"}, Weekday: "평일"}
	b := Filter{Lines: []string{"1호선", "2호선"}, Weekday: "평일"}
	assert.Equal(t, a.Key(), b.Key())

	c := Filter{Weekday: AllWeekdays}
	assert.Equal(t, Filter{}.Key(), c.Key())

	d := Filter{TimeRange: &TimeRange{Start: 0, End: 3}}
	assert.NotEqual(t, Filter{}.Key(), d.Key())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"1호선", "2호선", "3호선"}, SplitList([]string{"1호선, 2호선", "", " 3호선 "}))
	assert.Nil(t, SplitList(nil))
}

func TestIsMissingValue(t *testing.T) {
	assert.True(t, IsMissingValue(null.Float{}))
	assert.True(t, IsMissingValue(null.FloatFrom(0)))
	assert.False(t, IsMissingValue(null.FloatFrom(0.1)))
}
