// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package charts

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ManuGH/metrocrowd/internal/analysis"
	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// RankingBar plots the n most congested "역 (호선)" labels as horizontal
// bars, largest on top. Only max and mean are offered; anything else is max.
func RankingBar(records []congestion.Record, n int, agg analysis.Aggregate) Figure {
	valid := congestion.Valid(records)
	if len(valid) == 0 {
		return Message(MessageNoData)
	}

	aggLabel := "최대"
	if agg == analysis.AggregateMean {
		aggLabel = "평균"
	} else {
		agg = analysis.AggregateMax
	}

	ranks := analysis.TopStations(valid, -1, nil, agg)
	// Ranking is by label, so re-sort ties on the rendered label.
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Value != ranks[j].Value {
			return ranks[i].Value > ranks[j].Value
		}
		return ranks[i].Label() < ranks[j].Label()
	})
	if n >= 0 && n < len(ranks) {
		ranks = ranks[:n]
	}

	// Plotly draws the first category at the bottom.
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Value < ranks[j].Value
	})

	labels := make([]string, len(ranks))
	values := make([]float64, len(ranks))
	text := make([]string, len(ranks))
	for i, r := range ranks {
		labels[i] = r.Label()
		values[i] = r.Value
		text[i] = strconv.FormatFloat(r.Value, 'f', 1, 64)
	}
	hideLegend := false

	return Figure{
		Data: []Trace{{
			Type:        "bar",
			Orientation: "h",
			X:           values,
			Y:           labels,
			Marker: &Marker{
				Color:      values,
				Colorscale: colorscaleCongestion,
				ShowScale:  true,
				ColorBar:   &ColorBar{Title: Title{Text: axisTitleCongestion}},
			},
			Text:          text,
			TextPosition:  "outside",
			HoverTemplate: "역: %{y}<br>혼잡도: %{x:.1f}<extra></extra>",
		}},
		Layout: Layout{
			Title:      &Title{Text: fmt.Sprintf("Top %d 혼잡 역 (%s 혼잡도 기준)", n, aggLabel)},
			XAxis:      axisTitled(axisTitleCongestion),
			YAxis:      axisTitled(axisTitleStationLine),
			Height:     dynamicHeight(n, 40),
			ShowLegend: &hideLegend,
		},
	}
}
