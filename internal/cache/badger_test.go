// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := NewBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	c.Set("charts/heatmap?stations=20", []byte(`{"data":[]}`), time.Hour)
	require.NoError(t, c.Close())

	c, err = NewBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	val, ok := c.Get("charts/heatmap?stations=20")
	require.True(t, ok)
	assert.Equal(t, `{"data":[]}`, string(val))
}

func TestBadgerCache_Operations(t *testing.T) {
	c, err := NewBadgerCache("", zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), time.Hour)
	assert.Equal(t, 2, c.Stats().CurrentSize)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.CurrentSize)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
}
