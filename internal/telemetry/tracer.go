// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package telemetry wires OpenTelemetry tracing for the API server and the ETL pipeline.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ManuGH/metrocrowd/internal/config"
)

const (
	// ServiceName is the resource service name of every span.
	ServiceName = "metrocrowd"
	// ServiceNamespace groups the service with other transit data tools.
	ServiceNamespace = "seoul-metro"

	// ComponentsKey lists the subsystems running in the traced process.
	ComponentsKey = "metrocrowd.components"
	// DatasetKey names the dataset the process serves.
	DatasetKey = "metrocrowd.dataset"

	datasetName     = "seoul-metro-congestion"
	shutdownTimeout = 5 * time.Second
)

// ErrUnsupportedExporter is returned for exporters other than grpc and http.
var ErrUnsupportedExporter = errors.New("unsupported exporter type")

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceVersion string
	Environment    string
	// Exporter is "grpc" (default port 4317) or "http" (4318).
	Exporter string
	Endpoint string
	// SamplingRate applies to API requests without a sampled parent.
	// Refresh and ETL spans are always recorded.
	SamplingRate float64
	// Components become the ComponentsKey resource attribute, e.g. "api", "etl".
	Components []string
}

// ConfigFromSettings builds the tracer configuration for a process running
// the given components.
func ConfigFromSettings(s config.TelemetrySettings, version string, components ...string) Config {
	return Config{
		Enabled:        s.Enabled,
		ServiceVersion: version,
		Environment:    s.Environment,
		Exporter:       s.Exporter,
		Endpoint:       s.Endpoint,
		SamplingRate:   s.SamplingRate,
		Components:     components,
	}
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider installs the global tracer provider. A disabled config installs
// a noop provider and returns a Provider that reports !Enabled.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{}, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceNamespaceKey.String(ServiceNamespace),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		attribute.String(DatasetKey, datasetName),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	if len(cfg.Components) > 0 {
		attrs = append(attrs, attribute.StringSlice(ComponentsKey, cfg.Components))
	}
	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(attrs...),
	)
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "grpc", "":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create gRPC exporter: %w", err)
		}
		return exp, nil
	case "http":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create HTTP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: grpc, http)", ErrUnsupportedExporter, cfg.Exporter)
	}
}

// newSampler follows the parent's decision. Root spans of refreshes and ETL
// runs are always kept; other roots, i.e. API requests, use the ratio.
func newSampler(rate float64) sdktrace.Sampler {
	var ratio sdktrace.Sampler
	switch {
	case rate >= 1.0:
		ratio = sdktrace.AlwaysSample()
	case rate <= 0.0:
		ratio = sdktrace.NeverSample()
	default:
		ratio = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(jobSampler{requests: ratio})
}

// jobSamplePrefixes name the spans started by background work.
var jobSamplePrefixes = []string{"jobs.", "etl."}

type jobSampler struct {
	requests sdktrace.Sampler
}

func (s jobSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for _, prefix := range jobSamplePrefixes {
		if strings.HasPrefix(p.Name, prefix) {
			return sdktrace.SamplingResult{
				Decision:   sdktrace.RecordAndSample,
				Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
			}
		}
	}
	return s.requests.ShouldSample(p)
}

func (s jobSampler) Description() string {
	return "JobSampler{requests:" + s.requests.Description() + "}"
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return p.tp.Shutdown(shutdownCtx)
}

// Enabled reports whether a recording tracer provider is installed.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Tracer returns a tracer for the given name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
