// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/metrics"
)

// computeFunc derives a response body from the filtered records.
type computeFunc func(records []congestion.Record) (any, error)

// cacheKey identifies a computed response: endpoint, data revision,
// canonical filter and the normalised endpoint parameters. The revision is
// stable across restarts so persistent caches never outlive their data.
func cacheKey(endpoint, revision string, f congestion.Filter, params url.Values) string {
	key := "v1:" + endpoint + ":" + revision + ":" + f.Key()
	if len(params) > 0 {
		key += "|" + params.Encode()
	}
	return key
}

// respondComputed filters the current snapshot and answers with the JSON
// produced by compute, served from the response cache when possible.
func (s *Server) respondComputed(w http.ResponseWriter, r *http.Request, endpoint string, params url.Values, compute computeFunc) {
	snap := s.deps.Dataset.Snapshot()
	filter, err := parseFilter(r.URL.Query(), snap)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body, hit, err := s.filler.GetOrFill(cacheKey(endpoint, snap.Revision(), filter, params), func() ([]byte, error) {
		v, err := compute(snap.Query(filter))
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	metrics.RecordCacheLookup(endpoint, hit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// orEmpty keeps empty results serialised as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
