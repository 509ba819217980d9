// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package charts

import (
	"fmt"
	"sort"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

type meanAcc struct {
	sum   float64
	count int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.count++
}

func (m meanAcc) mean() float64 {
	return m.sum / float64(m.count)
}

// topByMean returns up to n keys with the highest mean, ties in key order.
func topByMean(means map[string]*meanAcc, n int) []string {
	keys := make([]string, 0, len(means))
	for k := range means {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return means[keys[i]].mean() > means[keys[j]].mean()
	})
	if n >= 0 && n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

// slotOrder collects distinct time slots of records sorted by time order.
func slotOrder(records []congestion.Record) []string {
	orders := map[string]int{}
	for _, r := range records {
		if _, ok := orders[r.TimeSlot]; !ok {
			orders[r.TimeSlot] = r.TimeOrder
		}
	}
	slots := make([]string, 0, len(orders))
	for s := range orders {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if orders[slots[i]] != orders[slots[j]] {
			return orders[slots[i]] < orders[slots[j]]
		}
		return slots[i] < slots[j]
	})
	return slots
}

// Heatmap plots mean congestion per "역 (호선)" and time slot for the
// maxStations labels with the highest overall mean.
func Heatmap(records []congestion.Record, maxStations int) Figure {
	valid := congestion.Valid(records)
	if len(valid) == 0 {
		return Message(MessageNoData)
	}

	labelMeans := map[string]*meanAcc{}
	for _, r := range valid {
		label := r.StationLabel()
		if labelMeans[label] == nil {
			labelMeans[label] = &meanAcc{}
		}
		labelMeans[label].add(r.Value())
	}
	keep := map[string]bool{}
	for _, l := range topByMean(labelMeans, maxStations) {
		keep[l] = true
	}

	type cellKey struct{ label, slot string }
	cells := map[cellKey]*meanAcc{}
	var plotted []congestion.Record
	for _, r := range valid {
		label := r.StationLabel()
		if !keep[label] {
			continue
		}
		plotted = append(plotted, r)
		k := cellKey{label, r.TimeSlot}
		if cells[k] == nil {
			cells[k] = &meanAcc{}
		}
		cells[k].add(r.Value())
	}
	slots := slotOrder(plotted)

	// Rows are ordered by the mean of their cell means.
	rowMeans := map[string]*meanAcc{}
	for k, c := range cells {
		if rowMeans[k.label] == nil {
			rowMeans[k.label] = &meanAcc{}
		}
		rowMeans[k.label].add(c.mean())
	}
	rows := topByMean(rowMeans, -1)

	z := make([][]*float64, len(rows))
	for i, label := range rows {
		z[i] = make([]*float64, len(slots))
		for j, slot := range slots {
			if c, ok := cells[cellKey{label, slot}]; ok {
				v := c.mean()
				z[i][j] = &v
			}
		}
	}

	return Figure{
		Data: []Trace{{
			Type:          "heatmap",
			X:             slots,
			Y:             rows,
			Z:             z,
			Colorscale:    colorscaleCongestion,
			ColorBar:      &ColorBar{Title: Title{Text: axisTitleCongestion}},
			HoverTemplate: "역: %{y}<br>시간: %{x}<br>혼잡도: %{z:.1f}<extra></extra>",
		}},
		Layout: Layout{
			Title:  &Title{Text: fmt.Sprintf("역별 시간대 혼잡도 히트맵 (상위 %d개 역)", len(rows))},
			XAxis:  &Axis{Title: &Title{Text: axisTitleTimeSlot}, TickAngle: defaultTickAngle},
			YAxis:  axisTitled(axisTitleStationLine),
			Height: dynamicHeight(len(rows), 20),
			Font:   &Font{Size: 10},
		},
	}
}
