// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ManuGH/metrocrowd/internal/analysis"
	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
)

// OptionsResponse lists the values the filters accept.
type OptionsResponse struct {
	dataset.Options
	Records    int       `json:"records"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at,omitzero"`
}

// RecordsResponse is a preview of the filtered rows.
type RecordsResponse struct {
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Records []congestion.Record `json:"records"`
}

// RankingResponse is the Top-N station ranking.
type RankingResponse struct {
	Aggregate analysis.Aggregate     `json:"aggregate"`
	Stations  []analysis.StationRank `json:"stations"`
}

// PeriodsResponse holds the per-period averages.
type PeriodsResponse struct {
	Periods []analysis.PeriodAverage `json:"periods"`
}

// PeaksResponse holds the peak time slots.
type PeaksResponse struct {
	Threshold *float64            `json:"threshold,omitempty"`
	Peaks     []analysis.PeakHour `json:"peaks"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Dataset.Snapshot()
	writeJSON(w, http.StatusOK, OptionsResponse{
		Options:    snap.Options(),
		Records:    snap.Len(),
		Generation: snap.Generation(),
		LoadedAt:   snap.LoadedAt(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.respondComputed(w, r, "summary", nil, func(records []congestion.Record) (any, error) {
		return analysis.Summarize(records), nil
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", defaultPreviewRows, minPreviewRows, maxPreviewRows)
	if err != nil {
		respondError(w, r, err)
		return
	}
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	s.respondComputed(w, r, "records", params, func(records []congestion.Record) (any, error) {
		preview := records
		if len(preview) > limit {
			preview = preview[:limit]
		}
		return RecordsResponse{Total: len(records), Limit: limit, Records: orEmpty(preview)}, nil
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := intParam(q, "n", defaultTopN, minTopN, maxTopN)
	if err != nil {
		respondError(w, r, err)
		return
	}
	agg := analysis.ParseAggregate(q.Get("agg"))
	params := url.Values{"n": {strconv.Itoa(n)}, "agg": {string(agg)}}
	s.respondComputed(w, r, "ranking", params, func(records []congestion.Record) (any, error) {
		return RankingResponse{Aggregate: agg, Stations: orEmpty(analysis.TopStations(records, n, nil, agg))}, nil
	})
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	s.respondComputed(w, r, "periods", nil, func(records []congestion.Record) (any, error) {
		return PeriodsResponse{Periods: orEmpty(analysis.AverageByPeriod(records))}, nil
	})
}

func (s *Server) handlePeaks(w http.ResponseWriter, r *http.Request) {
	threshold, err := floatParam(r.URL.Query(), "threshold")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var params url.Values
	if threshold != nil {
		params = url.Values{"threshold": {strconv.FormatFloat(*threshold, 'g', -1, 64)}}
	}
	s.respondComputed(w, r, "peaks", params, func(records []congestion.Record) (any, error) {
		return PeaksResponse{Threshold: threshold, Peaks: orEmpty(analysis.PeakHours(records, threshold))}, nil
	})
}
