// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ETL pipeline
	etlRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrocrowd_etl_runs_total",
		Help: "ETL runs by outcome",
	}, []string{"status"}) // status=ok|failed

	etlDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metrocrowd_etl_duration_seconds",
		Help:    "Wall time of a full ETL run",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	etlParseFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metrocrowd_etl_parse_failures",
		Help: "Non-numeric congestion cells in the last successful run",
	})

	etlMissingRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metrocrowd_etl_missing_ratio",
		Help: "Share of missing congestion values in the last successful run (0..1)",
	})

	// Dataset
	datasetRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metrocrowd_dataset_records",
		Help: "Records in the served dataset snapshot",
	})

	datasetGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metrocrowd_dataset_generation",
		Help: "Generation counter of the served dataset snapshot",
	})

	lastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metrocrowd_last_refresh_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})

	refreshRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrocrowd_refresh_rejected_total",
		Help: "Refresh triggers that were not executed",
	}, []string{"reason"}) // reason=in_progress|throttled

	// Response cache
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrocrowd_response_cache_lookups_total",
		Help: "Response cache lookups by endpoint and result",
	}, []string{"endpoint", "result"}) // result=hit|miss

	// Config
	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrocrowd_config_reloads_total",
		Help: "Config hot reload attempts by outcome",
	}, []string{"result"}) // result=success|failure
)

// Refresh rejection reasons.
const (
	ReasonInProgress = "in_progress"
	ReasonThrottled  = "throttled"
)

// RecordETLRun records the outcome and duration of one ETL run.
func RecordETLRun(status string, d time.Duration) {
	etlRunsTotal.WithLabelValues(status).Inc()
	etlDuration.Observe(d.Seconds())
}

// RecordETLQuality records data quality figures of a successful run.
func RecordETLQuality(parseFailures int, missingPct float64) {
	etlParseFailures.Set(float64(parseFailures))
	etlMissingRatio.Set(missingPct / 100)
}

// RecordDataset records the shape of a freshly loaded snapshot.
func RecordDataset(records int, generation uint64, loadedAt time.Time) {
	datasetRecords.Set(float64(records))
	datasetGeneration.Set(float64(generation))
	lastRefreshTimestamp.Set(float64(loadedAt.Unix()))
}

func IncRefreshRejected(reason string) {
	refreshRejected.WithLabelValues(reason).Inc()
}

// RecordCacheLookup counts a response cache hit or miss for endpoint.
func RecordCacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(endpoint, result).Inc()
}

func RecordConfigReload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	configReloads.WithLabelValues(result).Inc()
}
