// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// Source header names of the ID columns.
const (
	ColumnWeekday     = "요일구분"
	ColumnLine        = "호선"
	ColumnStationID   = "역번호"
	ColumnStationName = "출발역"
	ColumnDirection   = "상하구분"
)

// IDColumns lists the required non-time columns in source order.
var IDColumns = []string{ColumnWeekday, ColumnLine, ColumnStationID, ColumnStationName, ColumnDirection}

// Table is the unpivoted result of Parse.
type Table struct {
	Records       []congestion.Record
	TimeSlots     []congestion.TimeSlot
	Rows          int // wide rows read, excluding the header
	ParseFailures int // cells that did not yield a finite number, blanks included
}

// Parse reads a wide-format congestion CSV and unpivots it into one record
// per (row, time column). Cell values are trimmed and parsed as numbers;
// blanks, text, NaN and infinities become null and count as parse failures.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{Column: IDColumns[0]}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = cleanHeader(header)

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	idIdx := make([]int, len(IDColumns))
	for i, col := range IDColumns {
		pos, ok := index[col]
		if !ok {
			return nil, &MissingColumnError{Column: col}
		}
		idIdx[i] = pos
	}

	slots := congestion.TimeSlots(header)
	if len(slots) == 0 {
		return nil, ErrNoTimeColumns
	}
	type slotColumn struct {
		pos  int
		slot congestion.TimeSlot
		hour int
	}
	columns := make([]slotColumn, 0, len(slots))
	for pos, h := range header {
		if !congestion.IsTimeColumn(h) {
			continue
		}
		slot := slots[len(columns)]
		hour, err := congestion.SlotHour(slot.Label)
		if err != nil {
			return nil, fmt.Errorf("time column %q: %w", h, err)
		}
		columns = append(columns, slotColumn{pos: pos, slot: slot, hour: hour})
	}

	t := &Table{TimeSlots: slots}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Rows+1, err)
		}
		if isBlankRow(row) {
			continue
		}
		t.Rows++

		weekday := cell(row, idIdx[0])
		line := cell(row, idIdx[1])
		stationID := cell(row, idIdx[2])
		stationName := norm.NFC.String(cell(row, idIdx[3]))
		direction := cell(row, idIdx[4])

		for _, col := range columns {
			value, failed := parseCongestion(cell(row, col.pos))
			if failed {
				t.ParseFailures++
			}
			t.Records = append(t.Records, congestion.Record{
				Weekday:     weekday,
				Line:        line,
				StationID:   stationID,
				StationName: stationName,
				Direction:   direction,
				TimeSlot:    col.slot.Label,
				TimeOrder:   col.slot.Order,
				Congestion:  value,
				Hour:        col.hour,
				Period:      congestion.PeriodForHour(col.hour),
				IsMissing:   congestion.IsMissingValue(value),
			})
		}
	}
	return t, nil
}

// parseCongestion returns null with failed=true for any cell that is not a
// finite number, blank cells included.
func parseCongestion(raw string) (value null.Float, failed bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return null.Float{}, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}, true
	}
	return null.FloatFrom(v), false
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = norm.NFC.String(strings.TrimSpace(h))
	}
	return out
}

func cell(row []string, pos int) string {
	if pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
