// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterGlobal(t *testing.T) {
	limiter := New(Config{
		GlobalRate:      rate.Every(time.Hour),
		GlobalBurst:     3,
		PerClientRate:   100,
		PerClientBurst:  100,
		CleanupInterval: time.Minute,
	})

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow("") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)

	// per-client budget does not bypass the global bucket
	assert.False(t, limiter.Allow("192.168.1.1"))
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := New(Config{
		GlobalRate:      100,
		GlobalBurst:     100,
		PerClientRate:   rate.Every(time.Hour),
		PerClientBurst:  2,
		CleanupInterval: time.Minute,
	})

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow("192.168.1.3") {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)

	// a different client has its own bucket
	assert.True(t, limiter.Allow("192.168.1.4"))

	// internal triggers only see the global bucket
	assert.True(t, limiter.Allow(""))
}

func TestRateLimiterDefaultConfig(t *testing.T) {
	limiter := New(DefaultConfig())

	assert.True(t, limiter.Allow(""))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "client burst is one")
	assert.False(t, limiter.Allow(""), "global burst is two")
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := New(Config{
		GlobalRate:      1000,
		GlobalBurst:     1000,
		PerClientRate:   1000,
		PerClientBurst:  1000,
		CleanupInterval: time.Minute,
	})
	limiter.now = func() time.Time { return now }
	limiter.lastCleanup = now

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("192.168.1.%d", 100+i))
	}
	assert.Equal(t, 10, limiter.clientCount())

	now = now.Add(2 * time.Minute)
	limiter.Allow("192.168.1.200")

	assert.Equal(t, 1, limiter.clientCount(), "idle clients are dropped")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1, 10.0.0.1"},
			remoteAddr: "127.0.0.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.2",
		},
		{
			name:       "Fallback to RemoteAddr",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			want:       "192.168.1.100",
		},
		{
			name:       "X-Forwarded-For with spaces",
			headers:    map[string]string{"X-Forwarded-For": "  203.0.113.5  "},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.5",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.9",
			want:       "192.168.1.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remoteAddr

			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}

func BenchmarkRateLimiterAllow(b *testing.B) {
	limiter := New(DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("192.168.1.1")
	}
}
