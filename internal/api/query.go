// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
)

// Parameter bounds.
const (
	defaultPreviewRows = 100
	minPreviewRows     = 10
	maxPreviewRows     = 500

	defaultTopN = 10
	minTopN     = 5
	maxTopN     = 30

	defaultHeatmapStations = 20
	minHeatmapStations     = 5
	maxHeatmapStations     = 50

	defaultRunLimit = 20
	maxRunLimit     = 100
)

// parseFilter reads the shared filter parameters. Time-slot labels are
// resolved against snap.
func parseFilter(q url.Values, snap *dataset.Snapshot) (congestion.Filter, error) {
	f := congestion.Filter{
		Weekday:    strings.TrimSpace(q.Get("weekday")),
		Lines:      congestion.SplitList(q["line"]),
		Stations:   congestion.SplitList(q["station"]),
		Directions: congestion.SplitList(q["direction"]),
	}
	tr, err := snap.ResolveTimeRange(strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		return f, err
	}
	f.TimeRange = tr
	return f, nil
}

// intParam parses name, falling back to def when absent and clamping to
// [lo, hi].
func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidParam, name)
	}
	return min(max(v, lo), hi), nil
}

// floatParam parses an optional float. A nil result means absent.
func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s must be a number", errInvalidParam, name)
	}
	return &v, nil
}
