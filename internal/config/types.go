// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheNone   = "none"
)

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version  string
	DataDir  string
	LogLevel string

	ETL       ETLSettings
	Storage   StorageSettings
	API       APISettings
	Refresh   RefreshSettings
	Cache     CacheSettings
	Telemetry TelemetrySettings
	Server    ServerRuntimeConfig
}

// ETLSettings locates the raw CSV and the quality report.
type ETLSettings struct {
	RawDir     string
	SourceFile string
	ReportPath string
}

type StorageSettings struct {
	DBPath       string
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// APISettings configures the HTTP surface.
type APISettings struct {
	ListenAddr        string
	Bind              string
	MetricsListenAddr string // empty: /metrics served on the API listener
	Token             string // bearer token for POST /refresh; empty disables auth
	CORSOrigins       []string
	RateLimit         RateLimitSettings
}

type RateLimitSettings struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// RefreshSettings controls when and how often the dataset is rebuilt.
type RefreshSettings struct {
	OnStartup      bool
	Watch          bool
	Debounce       time.Duration
	MinInterval    time.Duration // global token refill period
	Burst          int
	ClientInterval time.Duration // per-client token refill period
}

type CacheSettings struct {
	Backend         string
	TTL             time.Duration // 0 keeps entries until the next refresh
	CleanupInterval time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	BadgerPath      string
}

type TelemetrySettings struct {
	Enabled      bool
	Exporter     string // grpc or http
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// ServerRuntimeConfig holds HTTP server timeouts.
type ServerRuntimeConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// FileConfig represents the YAML configuration structure.
// Pointers distinguish "not set" from an explicit zero or false.
// Durations are Go duration strings such as "30s".
type FileConfig struct {
	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	ETL       ETLFileConfig       `yaml:"etl,omitempty"`
	Storage   StorageFileConfig   `yaml:"storage,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Refresh   RefreshFileConfig   `yaml:"refresh,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
	Server    ServerFileConfig    `yaml:"server,omitempty"`
}

type ETLFileConfig struct {
	RawDir     string `yaml:"rawDir,omitempty"`
	SourceFile string `yaml:"sourceFile,omitempty"`
	ReportPath string `yaml:"reportPath,omitempty"`
}

type StorageFileConfig struct {
	DBPath       string `yaml:"dbPath,omitempty"`
	BusyTimeout  string `yaml:"busyTimeout,omitempty"`
	MaxOpenConns *int   `yaml:"maxOpenConns,omitempty"`
}

type APIFileConfig struct {
	ListenAddr        string              `yaml:"listenAddr,omitempty"`
	Bind              string              `yaml:"bind,omitempty"`
	MetricsListenAddr string              `yaml:"metricsListenAddr,omitempty"`
	Token             string              `yaml:"token,omitempty"`
	CORSOrigins       []string            `yaml:"corsOrigins,omitempty"`
	RateLimit         RateLimitFileConfig `yaml:"rateLimit,omitempty"`
}

type RateLimitFileConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Requests *int   `yaml:"requests,omitempty"`
	Window   string `yaml:"window,omitempty"`
}

type RefreshFileConfig struct {
	OnStartup      *bool  `yaml:"onStartup,omitempty"`
	Watch          *bool  `yaml:"watch,omitempty"`
	Debounce       string `yaml:"debounce,omitempty"`
	MinInterval    string `yaml:"minInterval,omitempty"`
	Burst          *int   `yaml:"burst,omitempty"`
	ClientInterval string `yaml:"clientInterval,omitempty"`
}

type CacheFileConfig struct {
	Backend         string          `yaml:"backend,omitempty"`
	TTL             string          `yaml:"ttl,omitempty"`
	CleanupInterval string          `yaml:"cleanupInterval,omitempty"`
	Redis           RedisFileConfig `yaml:"redis,omitempty"`
	BadgerPath      string          `yaml:"badgerPath,omitempty"`
}

type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

type ServerFileConfig struct {
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string `yaml:"idleTimeout,omitempty"`
	MaxHeaderBytes  *int   `yaml:"maxHeaderBytes,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}
