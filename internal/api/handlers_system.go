// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/ratelimit"
	"github.com/ManuGH/metrocrowd/internal/store"
)

// StatusResponse reports the service and dataset state.
type StatusResponse struct {
	Version    string      `json:"version"`
	Records    int         `json:"records"`
	Generation uint64      `json:"generation"`
	LoadedAt   time.Time   `json:"loaded_at,omitzero"`
	Refresh    jobs.Status `json:"refresh"`
}

// RunsResponse lists recent ETL runs, newest first.
type RunsResponse struct {
	Runs []store.Run `json:"runs"`
}

// refreshFailure carries the refresh status next to the error.
type refreshFailure struct {
	errorResponse
	Status *jobs.Status `json:"status,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Dataset.Snapshot()
	resp := StatusResponse{
		Version:    s.deps.Version,
		Records:    snap.Len(),
		Generation: snap.Generation(),
		LoadedAt:   snap.LoadedAt(),
	}
	if s.deps.Refresher != nil {
		resp.Refresh = s.deps.Refresher.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", defaultRunLimit, 1, maxRunLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if s.deps.Runs == nil {
		writeJSON(w, http.StatusOK, RunsResponse{Runs: []store.Run{}})
		return
	}
	runs, err := s.deps.Runs.Runs(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: orEmpty(runs)})
}

// handleRefresh runs a refresh synchronously. The refresh outlives a
// disconnecting client so a started run always completes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="metrocrowd"`)
		respondError(w, r, errUnauthorized)
		return
	}
	if s.deps.Refresher == nil {
		respondError(w, r, errUnavailable)
		return
	}

	trigger := jobs.Trigger{Source: jobs.TriggerAPI, Client: ratelimit.GetClientIP(r)}
	status, err := s.deps.Refresher.Refresh(context.WithoutCancel(r.Context()), trigger)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case errors.Is(err, jobs.ErrRefreshThrottled):
		w.Header().Set("Retry-After", strconv.Itoa(int(s.deps.Config.Get().Refresh.MinInterval.Seconds())))
		respondError(w, r, err)
	case errors.Is(err, jobs.ErrRefreshInProgress):
		respondError(w, r, err)
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "refresh.api_failed").
			Msg("refresh triggered via api failed")
		writeJSON(w, http.StatusInternalServerError, refreshFailure{
			errorResponse: errorResponse{Error: err.Error(), RequestID: log.RequestIDFromContext(r.Context())},
			Status:        status,
		})
	}
}

// authorized checks the bearer token against the live configuration. An
// empty token leaves the endpoint open.
func (s *Server) authorized(r *http.Request) bool {
	token := s.deps.Config.Get().API.Token
	if token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) == 1
}
