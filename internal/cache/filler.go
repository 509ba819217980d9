// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"time"

	"golang.org/x/sync/singleflight"
)

// Filler collapses concurrent misses for the same key into one computation.
type Filler struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewFiller wraps c. Values are stored with ttl.
func NewFiller(c Cache, ttl time.Duration) *Filler {
	return &Filler{cache: c, ttl: ttl}
}

// Cache returns the wrapped cache.
func (f *Filler) Cache() Cache {
	return f.cache
}

// GetOrFill returns the cached value for key or computes, stores and
// returns it. hit reports whether the value came from the cache. Errors are
// not cached.
func (f *Filler) GetOrFill(key string, fill func() ([]byte, error)) (value []byte, hit bool, err error) {
	if v, ok := f.cache.Get(key); ok {
		return v, true, nil
	}
	v, err, _ := f.group.Do(key, func() (any, error) {
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
		data, err := fill()
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, data, f.ttl)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
