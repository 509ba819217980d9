// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"sort"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// Aggregate selects how station values are combined.
type Aggregate string

const (
	AggregateMax  Aggregate = "max"
	AggregateMean Aggregate = "mean"
	AggregateSum  Aggregate = "sum"
)

// ParseAggregate maps unknown names to AggregateMax.
func ParseAggregate(s string) Aggregate {
	switch Aggregate(s) {
	case AggregateMean:
		return AggregateMean
	case AggregateSum:
		return AggregateSum
	default:
		return AggregateMax
	}
}

// StationRank is one entry of the Top-N ranking.
type StationRank struct {
	StationName string  `json:"station_name"`
	Line        string  `json:"line"`
	Value       float64 `json:"congestion_value"`
}

// Label renders "역 (호선)".
func (s StationRank) Label() string {
	return s.StationName + " (" + s.Line + ")"
}

type stationKey struct {
	name, line string
}

type accumulator struct {
	max   float64
	sum   float64
	count int
}

func (a accumulator) value(agg Aggregate) float64 {
	switch agg {
	case AggregateMean:
		return a.sum / float64(a.count)
	case AggregateSum:
		return a.sum
	default:
		return a.max
	}
}

// TopStations groups valid records by (station, line), aggregates them and
// returns the n highest, descending. Ties keep (station, line) order.
// timeRange, when set, further restricts records by time order.
func TopStations(records []congestion.Record, n int, timeRange *congestion.TimeRange, agg Aggregate) []StationRank {
	agg = ParseAggregate(string(agg))
	groups := map[stationKey]*accumulator{}
	for _, r := range records {
		if r.IsMissing {
			continue
		}
		if timeRange != nil && !timeRange.Contains(r.TimeOrder) {
			continue
		}
		k := stationKey{r.StationName, r.Line}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{max: r.Value()}
			groups[k] = acc
		}
		v := r.Value()
		if v > acc.max {
			acc.max = v
		}
		acc.sum += v
		acc.count++
	}

	ranks := make([]StationRank, 0, len(groups))
	for k, acc := range groups {
		ranks = append(ranks, StationRank{StationName: k.name, Line: k.line, Value: acc.value(agg)})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].StationName != ranks[j].StationName {
			return ranks[i].StationName < ranks[j].StationName
		}
		return ranks[i].Line < ranks[j].Line
	})
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Value > ranks[j].Value
	})

	if n >= 0 && n < len(ranks) {
		ranks = ranks[:n]
	}
	return ranks
}
