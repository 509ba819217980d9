// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package etl turns the wide-format Seoul Metro congestion CSV into
// long-format congestion records.
package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	xglog "github.com/ManuGH/metrocrowd/internal/log"
	"github.com/ManuGH/metrocrowd/internal/telemetry"
)

// Options controls a pipeline run.
type Options struct {
	RawDir     string // directory searched for the source CSV
	SourceFile string // explicit source file; overrides RawDir discovery
	ReportPath string // optional JSON report destination
}

// Result is the output of Run.
type Result struct {
	Records    []congestion.Record
	TimeSlots  []congestion.TimeSlot
	Report     Report
	Rows       int // wide-format data rows
	SourceFile string
	Encoding   string
	Duration   time.Duration
}

var tracer = telemetry.Tracer("metrocrowd/etl")

// Run executes discover → decode → parse → sort → validate and optionally
// writes the report.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := xglog.WithComponentFromContext(ctx, "etl")

	ctx, span := tracer.Start(ctx, "etl.run")
	defer span.End()

	fail := func(step string, err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(telemetry.ETLStepKey, step))
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "etl.failed").
			Str(xglog.FieldStep, step).
			Msg("etl pipeline failed")
		return nil, err
	}

	source := opts.SourceFile
	if source == "" {
		found, err := FindCSV(opts.RawDir)
		if err != nil {
			return fail("discover", err)
		}
		source = found
	}
	logger.Info().
		Str(xglog.FieldEvent, "etl.start").
		Str(xglog.FieldSourceFile, source).
		Msg("starting etl")

	raw, err := os.ReadFile(source)
	if err != nil {
		return fail("read", fmt.Errorf("read %s: %w", source, err))
	}

	_, decodeSpan := tracer.Start(ctx, "etl.decode")
	text, encoding, err := Decode(raw)
	decodeSpan.End()
	if err != nil {
		return fail("decode", fmt.Errorf("decode %s: %w", filepath.Base(source), err))
	}
	span.SetAttributes(telemetry.ETLSourceAttributes(filepath.Base(source), encoding)...)
	logger.Info().
		Str(xglog.FieldEvent, "etl.decoded").
		Str(xglog.FieldEncoding, encoding).
		Msg("csv decoded")

	table, err := parseTraced(ctx, text)
	if err != nil {
		return fail("parse", err)
	}
	if table.ParseFailures > 0 {
		logger.Warn().
			Str(xglog.FieldEvent, "etl.parse_failures").
			Int("count", table.ParseFailures).
			Msg("blank or non-numeric congestion cells set to null")
	}

	// Validate sees source order so weekdays keep their first-seen order.
	report := Validate(table.Records, table.ParseFailures)
	congestion.SortRecords(table.Records)
	span.SetAttributes(telemetry.ETLShapeAttributes(table.Rows, len(table.TimeSlots), len(table.Records), report.Missing)...)

	ev := logger.Info()
	if !report.GroupConsistent {
		ev = logger.Warn()
	}
	ev.Str(xglog.FieldEvent, "etl.validated").
		Int(xglog.FieldRows, table.Rows).
		Int(xglog.FieldRecords, report.TotalRows).
		Int("time_slots", report.TimeSlots).
		Int("stations", report.Stations).
		Strs("lines", report.Lines).
		Int("missing", report.Missing).
		Float64("missing_pct", report.MissingPct).
		Bool("group_consistent", report.GroupConsistent).
		Msg("dataset validated")

	if opts.ReportPath != "" {
		if err := WriteReport(opts.ReportPath, report); err != nil {
			return fail("report", err)
		}
		logger.Info().
			Str(xglog.FieldEvent, "etl.report_written").
			Str(xglog.FieldPath, opts.ReportPath).
			Msg("report written")
	}

	res := &Result{
		Records:    table.Records,
		TimeSlots:  table.TimeSlots,
		Report:     report,
		Rows:       table.Rows,
		SourceFile: source,
		Encoding:   encoding,
		Duration:   time.Since(start),
	}
	logger.Info().
		Str(xglog.FieldEvent, "etl.done").
		Dur("duration", res.Duration).
		Msg("etl complete")
	return res, nil
}

func parseTraced(ctx context.Context, text []byte) (*Table, error) {
	_, span := tracer.Start(ctx, "etl.parse", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	table, err := Parse(bytes.NewReader(text))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.ETLRowsKey, table.Rows))
	return table, nil
}

// WriteReport writes the report as indented JSON, replacing path atomically.
func WriteReport(path string, report Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending report file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace report: %w", err)
	}
	return nil
}
