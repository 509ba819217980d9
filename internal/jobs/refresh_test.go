// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/cache"
	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/etl"
	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
	"github.com/ManuGH/metrocrowd/internal/store"
)

const rawCSV = `연번,요일구분,호선,역번호,출발역,상하구분,5시30분,6시00분,23시30분,00시00분,00시30분
1,평일,2호선,239,홍대입구,내선,12.3,45.1,80.0,0,
2,평일,1호선,150,서울역,상선,10,20,55.5,3.2,0.0
3,토요일,1호선,150,서울역,상선,8.1,20,101.5,,1.0
`

type fakeStore struct {
	mu       sync.Mutex
	replaced []store.Run
	recorded []store.Run
	err      error
}

func (f *fakeStore) ReplaceRecords(_ context.Context, run store.Run, _ []congestion.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replaced = append(f.replaced, run)
	return nil
}

func (f *fakeStore) RecordRun(_ context.Context, run store.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, run)
	return nil
}

type fakeCache struct{ cleared int }

func (f *fakeCache) Clear() { f.cleared++ }

type denyLimiter struct{ clients []string }

func (d *denyLimiter) Allow(client string) bool {
	d.clients = append(d.clients, client)
	return false
}

func etlResult(n int) ETLFunc {
	return func(context.Context, etl.Options) (*etl.Result, error) {
		records := make([]congestion.Record, n)
		for i := range records {
			records[i] = congestion.Record{TimeSlot: "05:30", Congestion: null.FloatFrom(float64(i))}
		}
		return &etl.Result{
			Records:    records,
			Rows:       n,
			SourceFile: "raw/data.csv",
			Encoding:   etl.EncodingCP949,
			Report:     etl.Report{TotalRows: n},
		}, nil
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestRefresh_Success(t *testing.T) {
	st := &fakeStore{}
	fc := &fakeCache{}
	r := NewRefresher(Config{RawDir: "raw"}, Deps{
		Store: st, Cache: fc, ETL: etlResult(4),
		Clock: fixedClock(), NewID: func() string { return "run-1" },
	})

	status, err := r.Refresh(context.Background(), Trigger{Source: TriggerAPI, Client: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, 4, status.Records)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.Empty(t, status.Error)
	assert.False(t, status.Running)
	assert.Equal(t, status.LastRun, status.LastOK)
	assert.Equal(t, 1, fc.cleared)

	require.Len(t, st.replaced, 1)
	run := st.replaced[0]
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, store.RunOK, run.Status)
	assert.Equal(t, "raw/data.csv", run.SourceFile)
	assert.Equal(t, etl.EncodingCP949, run.Encoding)
	assert.Equal(t, 4, run.Records)
	assert.True(t, run.FinishedAt.After(run.StartedAt))
	assert.Empty(t, st.recorded)

	assert.Equal(t, *status, r.Status())
}

func TestRefresh_ETLFailureRecordsFailedRun(t *testing.T) {
	st := &fakeStore{}
	fc := &fakeCache{}
	r := NewRefresher(Config{SourceFile: "raw/missing.csv"}, Deps{
		Store: st, Cache: fc,
		ETL: func(context.Context, etl.Options) (*etl.Result, error) {
			return nil, etl.ErrNoCSV
		},
		NewID: func() string { return "run-2" },
	})

	status, err := r.Refresh(context.Background(), Trigger{Source: TriggerWatcher})
	require.Error(t, err)
	assert.ErrorIs(t, err, etl.ErrNoCSV)
	require.NotNil(t, status)
	assert.Contains(t, status.Error, etl.ErrNoCSV.Error())
	assert.True(t, status.LastOK.IsZero())

	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.RunFailed, st.recorded[0].Status)
	assert.Equal(t, "raw/missing.csv", st.recorded[0].SourceFile)
	assert.Equal(t, "run-2", st.recorded[0].ID)
	assert.Zero(t, fc.cleared, "cache survives a failed refresh")
}

func TestRefresh_PersistFailure(t *testing.T) {
	boom := errors.New("disk full")
	st := &fakeStore{err: boom}
	r := NewRefresher(Config{}, Deps{Store: st, ETL: etlResult(2)})

	_, err := r.Refresh(context.Background(), Trigger{Source: TriggerSignal})
	assert.ErrorIs(t, err, boom)
	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.RunFailed, st.recorded[0].Status)
	assert.Equal(t, 2, st.recorded[0].Records)
}

func TestRefresh_Throttled(t *testing.T) {
	lim := &denyLimiter{}
	st := &fakeStore{}
	r := NewRefresher(Config{}, Deps{Store: st, Limiter: lim, ETL: etlResult(1)})

	_, err := r.Refresh(context.Background(), Trigger{Source: TriggerAPI, Client: "10.0.0.7"})
	assert.ErrorIs(t, err, ErrRefreshThrottled)
	assert.Equal(t, []string{"10.0.0.7"}, lim.clients)
	assert.Empty(t, st.replaced)

	// startup refresh is never throttled
	_, err = r.Refresh(context.Background(), Trigger{Source: TriggerStartup})
	require.NoError(t, err)
	assert.Len(t, st.replaced, 1)
}

func TestRefresh_InProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := NewRefresher(Config{}, Deps{
		Store: &fakeStore{},
		ETL: func(ctx context.Context, opts etl.Options) (*etl.Result, error) {
			close(started)
			<-release
			return etlResult(1)(ctx, opts)
		},
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background(), Trigger{Source: TriggerAPI})
		done <- err
	}()
	<-started

	assert.True(t, r.Status().Running)
	_, err := r.Refresh(context.Background(), Trigger{Source: TriggerAPI})
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, r.Status().Running)
}

func TestRefresh_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	require.NoError(t, os.MkdirAll(rawDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "congestion.csv"), []byte(rawCSV), 0o600))

	st, err := store.Open(filepath.Join(dir, "metrocrowd.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	ds := dataset.New(st)
	c := cache.NewMemoryCache(0)
	defer func() { _ = c.Close() }()
	c.Set("stale", []byte("x"), 0)

	r := NewRefresher(Config{RawDir: rawDir, ReportPath: filepath.Join(dir, "report.json")}, Deps{
		Store: st, Dataset: ds, Cache: c,
	})

	status, err := r.Refresh(context.Background(), Trigger{Source: TriggerStartup})
	require.NoError(t, err)
	assert.Equal(t, 15, status.Records)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Equal(t, 15, ds.Snapshot().Len())
	assert.Equal(t, uint64(1), ds.Snapshot().Generation())

	_, ok := c.Get("stale")
	assert.False(t, ok, "cache cleared after refresh")
	assert.FileExists(t, filepath.Join(dir, "report.json"))

	runs, err := st.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunOK, runs[0].Status)
	assert.Equal(t, etl.EncodingUTF8, runs[0].Encoding)
	assert.Equal(t, 3, runs[0].Rows)
	assert.Equal(t, status.LastRunID, runs[0].ID)
}
