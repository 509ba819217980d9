// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the congestion analytics HTTP API and the embedded
// dashboard.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/metrocrowd/internal/api/middleware"
	"github.com/ManuGH/metrocrowd/internal/cache"
	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/store"
)

// BasePath prefixes every API route.
const BasePath = "/api/v1"

// Snapshots exposes the current dataset snapshot.
type Snapshots interface {
	Snapshot() *dataset.Snapshot
}

// RunLister reads the ETL run history.
type RunLister interface {
	Runs(ctx context.Context, limit int) ([]store.Run, error)
}

// Refresher triggers and reports dataset refreshes.
type Refresher interface {
	Refresh(ctx context.Context, trigger jobs.Trigger) (*jobs.Status, error)
	Status() jobs.Status
}

// Exporter streams export rows from persistent storage in export order.
type Exporter interface {
	StreamDownload(ctx context.Context, f congestion.Filter, fn func(congestion.DownloadRow) error) error
}

// ConfigSource returns the live configuration.
type ConfigSource interface {
	Get() config.AppConfig
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler interface {
	ServeHealth(w http.ResponseWriter, r *http.Request)
	ServeReady(w http.ResponseWriter, r *http.Request)
}

// Deps are the collaborators of the API server. Runs, Refresher and Health
// are optional; the routes they back answer 503 without them. Without
// Export the CSV export is served from the snapshot.
type Deps struct {
	Dataset   Snapshots
	Runs      RunLister
	Export    Exporter
	Refresher Refresher
	Cache     cache.Cache
	Health    HealthHandler
	Config    ConfigSource
	Version   string
	Now       func() time.Time
}

// Server holds the HTTP handlers of the service.
type Server struct {
	deps   Deps
	filler *cache.Filler
	router chi.Router
}

// New builds the server and its router from the configuration at startup.
// Route layout and middleware are fixed for the process lifetime.
func New(deps Deps) *Server {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoOpCache()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg := deps.Config.Get()

	s := &Server{
		deps:   deps,
		filler: cache.NewFiller(deps.Cache, cfg.Cache.TTL),
	}
	s.router = s.routes(cfg)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(cfg config.AppConfig) chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            len(cfg.API.CORSOrigins) > 0,
		AllowedOrigins:        cfg.API.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracingService(cfg),
		EnableLogging:         true,
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if cfg.API.MetricsListenAddr == "" {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Handle("/", uiHandler(middleware.DefaultCSP))

	r.Route(BasePath, func(r chi.Router) {
		if cfg.API.RateLimit.Enabled {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: cfg.API.RateLimit.Requests,
				WindowSize:   cfg.API.RateLimit.Window,
			}))
		}

		r.Get("/openapi.yaml", handleOpenAPI)
		r.Get("/status", s.handleStatus)
		r.Get("/options", s.handleOptions)
		r.Get("/summary", s.handleSummary)
		r.Get("/records", s.handleRecords)
		r.Get("/ranking", s.handleRanking)
		r.Get("/periods", s.handlePeriods)
		r.Get("/peaks", s.handlePeaks)
		r.Get("/export.csv", s.handleExport)
		r.Get("/runs", s.handleRuns)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/charts", func(r chi.Router) {
			r.Get("/heatmap", s.handleHeatmap)
			r.Get("/line", s.handleLineChart)
			r.Get("/ranking", s.handleRankingChart)
			r.Get("/distribution", s.handleDistribution)
		})
	})

	return r
}

func tracingService(cfg config.AppConfig) string {
	if !cfg.Telemetry.Enabled {
		return ""
	}
	return "metrocrowd-api"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	s.deps.Health.ServeHealth(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	s.deps.Health.ServeReady(w, r)
}
