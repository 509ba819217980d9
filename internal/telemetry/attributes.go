// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// ETL attributes
	ETLSourceFileKey  = "etl.source_file"
	ETLEncodingKey    = "etl.encoding"
	ETLStepKey        = "etl.step"
	ETLRowsKey        = "etl.rows"
	ETLTimeColumnsKey = "etl.time_columns"
	ETLRecordsKey     = "etl.records"
	ETLMissingKey     = "etl.missing"

	// Dataset attributes
	DatasetRecordsKey = "dataset.records"
	DatasetFilterKey  = "dataset.filter"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ETLSourceAttributes describes the CSV being ingested. Empty values are skipped.
func ETLSourceAttributes(sourceFile, encoding string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if sourceFile != "" {
		attrs = append(attrs, attribute.String(ETLSourceFileKey, sourceFile))
	}
	if encoding != "" {
		attrs = append(attrs, attribute.String(ETLEncodingKey, encoding))
	}
	return attrs
}

// ETLShapeAttributes records the size of the wide input and the long output.
func ETLShapeAttributes(rows, timeColumns, records, missing int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(ETLRowsKey, rows),
		attribute.Int(ETLTimeColumnsKey, timeColumns),
		attribute.Int(ETLRecordsKey, records),
		attribute.Int(ETLMissingKey, missing),
	}
}

// DatasetAttributes creates dataset query span attributes.
func DatasetAttributes(records int, filterKey string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(DatasetRecordsKey, records),
		attribute.String(DatasetFilterKey, filterKey),
	}
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
