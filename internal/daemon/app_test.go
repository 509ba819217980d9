// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/metrocrowd/internal/config"
	"github.com/ManuGH/metrocrowd/internal/jobs"
	"github.com/ManuGH/metrocrowd/internal/log"
)

// blockingManager runs until its context ends, or fails at once with startErr.
type blockingManager struct {
	startErr error
	started  chan struct{}

	mu       sync.Mutex
	shutdown int
}

func newBlockingManager(startErr error) *blockingManager {
	return &blockingManager{startErr: startErr, started: make(chan struct{})}
}

func (m *blockingManager) Start(ctx context.Context) error {
	close(m.started)
	if m.startErr != nil {
		return m.startErr
	}
	<-ctx.Done()
	return nil
}

func (m *blockingManager) Shutdown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown++
	return nil
}

func (m *blockingManager) RegisterShutdownHook(string, ShutdownHook) {}

type fakeRefresher struct {
	mu       sync.Mutex
	triggers []jobs.Trigger
	watching chan struct{}
	err      error
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger jobs.Trigger) (*jobs.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return &jobs.Status{}, f.err
}

func (f *fakeRefresher) WatchRawDir(ctx context.Context) error {
	if f.watching != nil {
		close(f.watching)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeRefresher) sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.triggers))
	for i, t := range f.triggers {
		out[i] = t.Source
	}
	return out
}

func newTestApp(mgr Manager, holder *config.ConfigHolder, r Refresher) *App {
	a := NewApp(log.WithComponent("test"), mgr, holder, r)
	a.reloadSignal = nil
	return a
}

func envOnlyHolder(watch bool) *config.ConfigHolder {
	cfg := config.Defaults()
	cfg.Refresh.Watch = watch
	return config.NewConfigHolder(cfg, config.NewLoader("", "test"))
}

func TestApp_Run_MissingManager(t *testing.T) {
	a := newTestApp(nil, nil, nil)
	assert.ErrorIs(t, a.Run(context.Background()), ErrMissingManager)
}

func TestApp_Run_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr := newBlockingManager(nil)
	r := &fakeRefresher{watching: make(chan struct{})}
	a := newTestApp(mgr, envOnlyHolder(true), r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	<-mgr.started
	select {
	case <-r.watching:
	case <-time.After(2 * time.Second):
		t.Fatal("raw directory watcher not started")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, mgr.shutdown, "clean stop leaves shutdown to Start")
}

func TestApp_Run_WatchDisabled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr := newBlockingManager(nil)
	r := &fakeRefresher{watching: make(chan struct{})}
	a := newTestApp(mgr, envOnlyHolder(false), r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	<-mgr.started
	cancel()
	require.NoError(t, <-done)

	select {
	case <-r.watching:
		t.Fatal("watcher started although disabled")
	default:
	}
}

func TestApp_Run_ManagerErrorStopsEverything(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	boom := errors.New("listen failed")
	mgr := newBlockingManager(boom)
	a := newTestApp(mgr, envOnlyHolder(true), &fakeRefresher{})

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after manager failure")
	}
	assert.Equal(t, 1, mgr.shutdown)
}

func TestApp_AppliesLogLevelOnReload(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	t.Setenv("METROCROWD_DATA_DIR", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))

	loader := config.NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := config.NewConfigHolder(initial, loader)

	mgr := newBlockingManager(nil)
	a := newTestApp(mgr, holder, nil)
	levels := make(chan string, 4)
	a.setLogLevel = func(level string) error {
		levels <- level
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	<-mgr.started

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, holder.Reload(ctx))

	select {
	case got := <-levels:
		assert.Equal(t, "debug", got)
	case <-time.After(2 * time.Second):
		t.Fatal("log level not applied")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestApp_HandleReloadSignal(t *testing.T) {
	r := &fakeRefresher{}
	a := newTestApp(newBlockingManager(nil), envOnlyHolder(false), r)
	a.reloadSignal = os.Interrupt

	a.handleReloadSignal(context.Background())
	assert.Equal(t, []string{jobs.TriggerSignal}, r.sources())

	r.err = jobs.ErrRefreshThrottled
	a.handleReloadSignal(context.Background())
	assert.Len(t, r.sources(), 2, "throttled refresh is logged, not fatal")
}
