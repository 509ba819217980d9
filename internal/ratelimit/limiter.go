// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ratelimit throttles refresh triggers with token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metrocrowd",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total rate limit rejections",
		},
		[]string{"limit_type"}, // limit_type=global|per_client
	)
)

// Config holds rate limiting configuration
type Config struct {
	// Global limit shared by every trigger source
	GlobalRate  rate.Limit
	GlobalBurst int

	// Per-client limits (API callers keyed by IP)
	PerClientRate  rate.Limit
	PerClientBurst int

	// Idle time after which a per-client limiter is dropped
	CleanupInterval time.Duration
}

// DefaultConfig allows one refresh per minute with a burst of two, and one
// per five minutes per client.
func DefaultConfig() Config {
	return Config{
		GlobalRate:      rate.Every(time.Minute),
		GlobalBurst:     2,
		PerClientRate:   rate.Every(5 * time.Minute),
		PerClientBurst:  1,
		CleanupInterval: 10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter combines a global bucket with per-client buckets.
type Limiter struct {
	config Config
	now    func() time.Time

	global  *rate.Limiter
	clients map[string]*clientLimiter
	mu      sync.Mutex

	lastCleanup time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		now:         time.Now,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		clients:     make(map[string]*clientLimiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a trigger from client may proceed. An empty client
// (internal triggers such as the file watcher) is only subject to the global
// bucket. The per-client bucket is checked first so a noisy caller cannot
// drain the global budget.
func (l *Limiter) Allow(client string) bool {
	if client != "" && !l.clientLimiter(client).Allow() {
		rateLimitExceeded.WithLabelValues("per_client").Inc()
		return false
	}
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global").Inc()
		return false
	}
	l.maybeCleanup()
	return true
}

func (l *Limiter) clientLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.config.PerClientRate, l.config.PerClientBurst)}
		l.clients[client] = cl
	}
	cl.lastSeen = l.now()
	return cl.limiter
}

// maybeCleanup drops per-client limiters idle for longer than the cleanup interval.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) < l.config.CleanupInterval {
		return
	}
	for client, cl := range l.clients {
		if now.Sub(cl.lastSeen) >= l.config.CleanupInterval {
			delete(l.clients, client)
		}
	}
	l.lastCleanup = now
}

func (l *Limiter) clientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// GetClientIP extracts the real client IP from the request
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
