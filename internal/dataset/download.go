// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// DownloadRows projects records onto the export columns in export order.
func DownloadRows(records []congestion.Record) []congestion.DownloadRow {
	rows := make([]congestion.DownloadRow, len(records))
	for i, r := range records {
		rows[i] = congestion.DownloadRowOf(r)
	}
	congestion.SortDownloadRows(rows)
	return rows
}

// DownloadFilename returns the attachment name for an export created at now.
func DownloadFilename(now time.Time) string {
	return "혼잡도_데이터_" + now.Format("20060102_150405") + ".csv"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter streams export rows as UTF-8 CSV with a BOM so spreadsheet
// applications detect the encoding.
type CSVWriter struct {
	w      *csv.Writer
	header bool
	out    io.Writer
	buf    []string
}

// NewCSVWriter returns a writer; the BOM and header are emitted before the first row.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), out: w, buf: make([]string, len(congestion.DownloadColumns))}
}

func (c *CSVWriter) writeHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	if _, err := c.out.Write(utf8BOM); err != nil {
		return err
	}
	return c.w.Write(congestion.DownloadColumns)
}

// Write appends one row.
func (c *CSVWriter) Write(r congestion.DownloadRow) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	c.buf[0] = r.Weekday
	c.buf[1] = r.Line
	c.buf[2] = r.StationName
	c.buf[3] = r.Direction
	c.buf[4] = r.TimeSlot
	c.buf[5] = formatCongestion(r)
	c.buf[6] = strconv.Itoa(r.Hour)
	c.buf[7] = string(r.Period)
	return c.w.Write(c.buf)
}

// Flush writes the header if no row was written and flushes buffered data.
func (c *CSVWriter) Flush() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// WriteCSV writes rows with BOM and header.
func WriteCSV(w io.Writer, rows []congestion.DownloadRow) error {
	cw := NewCSVWriter(w)
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// formatCongestion renders floats with at least one decimal ("40.0") and
// null as an empty cell.
func formatCongestion(r congestion.DownloadRow) string {
	if !r.Congestion.Valid {
		return ""
	}
	s := strconv.FormatFloat(r.Congestion.Float64, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
