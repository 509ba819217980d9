// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dataset

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/congestion"
)

func TestDownloadRows_Order(t *testing.T) {
	rows := DownloadRows(sample())
	require.Len(t, rows, 6)

	assert.Equal(t, "서울역", rows[0].StationName)
	assert.Equal(t, "00:00", rows[0].TimeSlot, "time slots sort as strings")
	assert.Equal(t, "05:30", rows[1].TimeSlot)
	assert.Equal(t, "홍대입구", rows[3].StationName)
}

func TestWriteCSV(t *testing.T) {
	rows := []congestion.DownloadRow{
		{Weekday: "평일", Line: "1호선", StationName: "서울역", Direction: "상선", TimeSlot: "07:30", Congestion: null.FloatFrom(40), Hour: 7, Period: congestion.PeriodMorningRush},
		{Weekday: "평일", Line: "1호선", StationName: "서울역", Direction: "상선", TimeSlot: "08:00", Congestion: null.FloatFrom(101.25), Hour: 8, Period: congestion.PeriodMorningRush},
		{Weekday: "평일", Line: "1호선", StationName: "서울역", Direction: "상선", TimeSlot: "08:30", Hour: 8, Period: congestion.PeriodMorningRush},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "output starts with a UTF-8 BOM")

	got, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		congestion.DownloadColumns,
		{"평일", "1호선", "서울역", "상선", "07:30", "40.0", "7", "출근"},
		{"평일", "1호선", "서울역", "상선", "08:00", "101.25", "8", "출근"},
		{"평일", "1호선", "서울역", "상선", "08:30", "", "8", "출근"},
	}, got)
}

func TestWriteCSV_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "\ufeffweekday,line,station_name,direction,time_slot,congestion,hour,period\n", buf.String())
}

func TestDownloadFilename(t *testing.T) {
	ts := time.Date(2025, 9, 30, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "혼잡도_데이터_20250930_140509.csv", DownloadFilename(ts))
}
