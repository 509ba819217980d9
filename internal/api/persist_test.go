// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/cache"
	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/persistence/sqlite"
	"github.com/ManuGH/metrocrowd/internal/store"
)

func openStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(dir, "metrocrowd.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func storeRun(t *testing.T, st *store.Store, id string, records []congestion.Record) {
	t.Helper()
	now := time.Now().UTC()
	run := store.Run{
		ID: id, StartedAt: now.Add(-time.Second), FinishedAt: now,
		SourceFile: "raw/congestion.csv", Encoding: "utf-8",
		Rows: len(records), Records: len(records), Status: store.RunOK,
	}
	require.NoError(t, st.ReplaceRecords(context.Background(), run, records))
}

// startProcess loads the dataset from st and serves it with a response
// cache persisted under cacheDir, the way the daemon does at startup.
func startProcess(t *testing.T, st *store.Store, cacheDir string) (*Server, func()) {
	t.Helper()
	cfg := config.Defaults()
	cfg.API.RateLimit.Enabled = false

	data := dataset.New(st)
	_, err := data.Load(context.Background())
	require.NoError(t, err)

	bc, err := cache.NewBadgerCache(cacheDir, zerolog.Nop())
	require.NoError(t, err)

	srv := New(Deps{
		Dataset: data,
		Export:  st,
		Cache:   bc,
		Config:  &staticConfig{cfg: cfg},
		Now:     func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
	})
	return srv, func() { _ = bc.Close() }
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec
}

func TestPersistentCacheSurvivesRestartOnlyWithSameData(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	st := openStore(t, dir)
	storeRun(t, st, "run-1", fixture())

	srv, stop := startProcess(t, st, cacheDir)
	rec := get(t, srv, "/api/v1/summary")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 7, decode[map[string]any](t, rec)["rows"])
	stop()

	// Restart over unchanged data reuses the persisted entry.
	srv, stop = startProcess(t, st, cacheDir)
	assert.Equal(t, "HIT", get(t, srv, "/api/v1/summary").Header().Get("X-Cache"))
	stop()

	// The data changes while the daemon is down; both processes would have
	// loaded generation 1, yet the new one must not see the old response.
	storeRun(t, st, "run-2", fixture()[:2])
	srv, stop = startProcess(t, st, cacheDir)
	defer stop()
	rec = get(t, srv, "/api/v1/summary")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["rows"])
}

func TestExport_StreamsFromStore(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t, dir)
	storeRun(t, st, "run-1", fixture())

	srv, stop := startProcess(t, st, filepath.Join(dir, "cache"))
	defer stop()

	rec := get(t, srv, "/api/v1/export.csv?line="+url.QueryEscape("1호선"))
	body := strings.TrimPrefix(rec.Body.String(), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1호선", strings.Split(lines[1], ",")[1])
	// Export order: station, weekday, direction, slot.
	assert.True(t, strings.HasPrefix(lines[1], "토요일,1호선,서울역,상선,08:00,40.0"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "평일,1호선,서울역,상선,08:00,80.0"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "평일,1호선,서울역,상선,18:00,0.0"), lines[3])
}

func TestExport_StoreErrorBeforeBody(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t, dir)
	storeRun(t, st, "run-1", fixture())
	srv, stop := startProcess(t, st, filepath.Join(dir, "cache"))
	defer stop()
	require.NoError(t, st.Close())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export.csv", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.NotContains(t, rec.Body.String(), "\ufeff")
}
