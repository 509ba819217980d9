// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/log"
)

var (
	errInvalidParam     = errors.New("invalid parameter")
	errUnauthorized     = errors.New("unauthorized")
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
	errUnavailable      = errors.New("service unavailable")
)

// errorResponse is the body of every error answer.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParam), errors.Is(err, dataset.ErrUnknownTimeSlot):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, jobs.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, jobs.ErrRefreshThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status code.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusFor(err), err)
}

// writeError writes the JSON error body. Server errors are logged and
// their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	msg := err.Error()
	logger := log.WithComponentFromContext(r.Context(), "api")
	if code >= http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.error").
			Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Int("status", code).
			Msg("request failed")
		if code == http.StatusInternalServerError {
			msg = "internal server error"
		}
	} else {
		logger.Debug().
			Err(err).
			Str(log.FieldEvent, "api.rejected").
			Str(log.FieldPath, r.URL.Path).
			Int("status", code).
			Msg("request rejected")
	}
	writeJSON(w, code, errorResponse{Error: msg, RequestID: log.RequestIDFromContext(r.Context())})
}
