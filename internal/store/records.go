// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

var recordColumns = []string{
	"weekday", "line", "station_id", "station_name", "direction",
	"time_slot", "time_order", "congestion", "hour", "period", "is_missing",
}

// insertBatch bounds the number of rows per INSERT statement.
const insertBatch = 500

// ReplaceRecords swaps the whole dataset and records run in one transaction.
// Records are stored in canonical order; unsorted input is sorted on a copy.
func (s *Store) ReplaceRecords(ctx context.Context, run Run, records []congestion.Record) error {
	if !congestion.IsSorted(records) {
		sorted := make([]congestion.Record, len(records))
		copy(sorted, records)
		congestion.SortRecords(sorted)
		records = sorted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableRecords); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	for start := 0; start < len(records); start += insertBatch {
		end := min(start+insertBatch, len(records))
		ins := s.qb.Insert(tableRecords).Columns(append([]string{"seq"}, recordColumns...)...)
		for i, r := range records[start:end] {
			ins = ins.Values(
				start+i,
				r.Weekday, r.Line, r.StationID, r.StationName, r.Direction,
				r.TimeSlot, r.TimeOrder, r.Congestion, r.Hour, string(r.Period), r.IsMissing,
			)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert records %d-%d: %w", start, end, err)
		}
	}

	if err := s.insertRun(ctx, tx, run); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// applyFilter adds WHERE clauses equivalent to congestion.Filter.Match.
func applyFilter(q squirrel.SelectBuilder, f congestion.Filter) squirrel.SelectBuilder {
	if f.HasWeekday() {
		q = q.Where(squirrel.Eq{"weekday": f.Weekday})
	}
	if len(f.Lines) > 0 {
		q = q.Where(squirrel.Eq{"line": f.Lines})
	}
	if len(f.Stations) > 0 {
		q = q.Where(squirrel.Eq{"station_name": f.Stations})
	}
	if len(f.Directions) > 0 {
		q = q.Where(squirrel.Eq{"direction": f.Directions})
	}
	if f.TimeRange != nil {
		q = q.Where(squirrel.And{
			squirrel.GtOrEq{"time_order": f.TimeRange.Start},
			squirrel.LtOrEq{"time_order": f.TimeRange.End},
		})
	}
	return q
}

// Records returns the records matching f in canonical order.
func (s *Store) Records(ctx context.Context, f congestion.Filter) ([]congestion.Record, error) {
	q := applyFilter(s.qb.Select(recordColumns...).From(tableRecords), f).OrderBy("seq")
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build records query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []congestion.Record{}
	for rows.Next() {
		var r congestion.Record
		var period string
		if err := rows.Scan(&r.Weekday, &r.Line, &r.StationID, &r.StationName, &r.Direction,
			&r.TimeSlot, &r.TimeOrder, &r.Congestion, &r.Hour, &period, &r.IsMissing); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Period = congestion.Period(period)
		out = append(out, r)
	}
	return out, rows.Err()
}

// StreamDownload calls fn for every export row matching f, ordered by line,
// station name, weekday, direction and time slot. Iteration stops at the
// first error returned by fn.
func (s *Store) StreamDownload(ctx context.Context, f congestion.Filter, fn func(congestion.DownloadRow) error) error {
	q := applyFilter(s.qb.Select(
		"weekday", "line", "station_name", "direction", "time_slot", "congestion", "hour", "period",
	).From(tableRecords), f).
		OrderBy("line", "station_name", "weekday", "direction", "time_slot")
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build download query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query download: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d congestion.DownloadRow
		var period string
		if err := rows.Scan(&d.Weekday, &d.Line, &d.StationName, &d.Direction,
			&d.TimeSlot, &d.Congestion, &d.Hour, &period); err != nil {
			return fmt.Errorf("scan download row: %w", err)
		}
		d.Period = congestion.Period(period)
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := s.qb.Select("COUNT(*)").From(tableRecords).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
