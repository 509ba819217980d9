// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package charts

import (
	"sort"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// DefaultLineStations is the number of stations plotted when none are selected.
const DefaultLineStations = 5

// Line plots mean congestion per time slot, one trace per
// "역 (호선, 방향)". Without a selection the five station names with the
// highest mean are plotted.
func Line(records []congestion.Record, stations []string) Figure {
	valid := congestion.Valid(records)
	if len(valid) == 0 {
		return Message(MessageNoData)
	}

	if len(stations) == 0 {
		means := map[string]*meanAcc{}
		for _, r := range valid {
			if means[r.StationName] == nil {
				means[r.StationName] = &meanAcc{}
			}
			means[r.StationName].add(r.Value())
		}
		stations = topByMean(means, DefaultLineStations)
	}
	plotted := congestion.Filter{Stations: stations}.Apply(valid)
	if len(plotted) == 0 {
		return Message(MessageNoStationData)
	}

	type pointKey struct{ series, slot string }
	points := map[pointKey]*meanAcc{}
	seriesSlots := map[string][]congestion.Record{}
	for _, r := range plotted {
		label := r.SeriesLabel()
		k := pointKey{label, r.TimeSlot}
		if points[k] == nil {
			points[k] = &meanAcc{}
			seriesSlots[label] = append(seriesSlots[label], r)
		}
		points[k].add(r.Value())
	}

	labels := make([]string, 0, len(seriesSlots))
	for l := range seriesSlots {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	traces := make([]Trace, 0, len(labels))
	for _, label := range labels {
		slots := slotOrder(seriesSlots[label])
		ys := make([]float64, len(slots))
		for i, slot := range slots {
			ys[i] = points[pointKey{label, slot}].mean()
		}
		traces = append(traces, Trace{
			Type:          "scatter",
			Mode:          "lines+markers",
			Name:          label,
			X:             slots,
			Y:             ys,
			HoverTemplate: "혼잡도: %{y:.1f}",
		})
	}

	return Figure{
		Data: traces,
		Layout: Layout{
			Title:     &Title{Text: "시간대별 혼잡도 추이"},
			XAxis:     &Axis{Title: &Title{Text: axisTitleTimeSlot}, TickAngle: defaultTickAngle},
			YAxis:     axisTitled(axisTitleCongestion),
			Height:    defaultFigureHeight,
			HoverMode: "x unified",
			Legend:    &Legend{Orientation: "v", X: 1.02, Y: 1, XAnchor: "left", YAnchor: "top"},
		},
	}
}
