// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/ManuGH/metrocrowd/internal/analysis"
	"github.com/ManuGH/metrocrowd/internal/charts"
	"github.com/ManuGH/metrocrowd/internal/congestion"
)

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	stations, err := intParam(r.URL.Query(), "stations", defaultHeatmapStations, minHeatmapStations, maxHeatmapStations)
	if err != nil {
		respondError(w, r, err)
		return
	}
	params := url.Values{"stations": {strconv.Itoa(stations)}}
	s.respondComputed(w, r, "charts.heatmap", params, func(records []congestion.Record) (any, error) {
		return charts.Heatmap(records, stations), nil
	})
}

func (s *Server) handleLineChart(w http.ResponseWriter, r *http.Request) {
	focus := congestion.SplitList(r.URL.Query()["focus"])
	var params url.Values
	if len(focus) > 0 {
		sorted := append([]string(nil), focus...)
		sort.Strings(sorted)
		params = url.Values{"focus": sorted}
	}
	s.respondComputed(w, r, "charts.line", params, func(records []congestion.Record) (any, error) {
		return charts.Line(records, focus), nil
	})
}

func (s *Server) handleRankingChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := intParam(q, "n", defaultTopN, minTopN, maxTopN)
	if err != nil {
		respondError(w, r, err)
		return
	}
	agg := analysis.ParseAggregate(q.Get("agg"))
	if agg != analysis.AggregateMean {
		agg = analysis.AggregateMax
	}
	params := url.Values{"n": {strconv.Itoa(n)}, "agg": {string(agg)}}
	s.respondComputed(w, r, "charts.ranking", params, func(records []congestion.Record) (any, error) {
		return charts.RankingBar(records, n, agg), nil
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	s.respondComputed(w, r, "charts.distribution", nil, func(records []congestion.Record) (any, error) {
		return charts.Distribution(records), nil
	})
}
