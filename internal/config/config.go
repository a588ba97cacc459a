// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package config loads Spotmap configuration from defaults, an optional YAML
// file and environment variables (in that order of precedence, lowest first).
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Tiles       TilesConfig       `koanf:"tiles"`
	Leaderboard LeaderboardConfig `koanf:"leaderboard"`
	Owners      OwnersConfig      `koanf:"owners"`
	Events      EventsConfig      `koanf:"events"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings for the spot store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// SeedDemoData inserts a handful of spots and owners on startup when
	// the store is empty. Development only.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// TilesConfig tunes the tile aggregator and its cache.
type TilesConfig struct {
	CacheCapacity int           `koanf:"cache_capacity"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	SyncInterval  time.Duration `koanf:"sync_interval"` // nextSyncAt offset
	MaxResults    int           `koanf:"max_results"`
	DOMBudget     int           `koanf:"dom_budget"`

	// Cache-Control max-age values for tile responses.
	PrivateMaxAge        time.Duration `koanf:"private_max_age"`
	PublicMaxAge         time.Duration `koanf:"public_max_age"`
	StaleWhileRevalidate time.Duration `koanf:"stale_while_revalidate"`
}

// LeaderboardConfig controls rebuild scheduling and snapshot storage.
type LeaderboardConfig struct {
	MaxEntries     int           `koanf:"max_entries"`
	Interval       time.Duration `koanf:"interval"`
	StaleAfter     time.Duration `koanf:"stale_after"`
	RebuildTimeout time.Duration `koanf:"rebuild_timeout"`

	// Store selects where the snapshot lives: "duckdb" or "badger".
	Store     string `koanf:"store"`
	BadgerDir string `koanf:"badger_dir"`
}

// OwnersConfig tunes owner metadata lookups.
type OwnersConfig struct {
	BatchSize       int           `koanf:"batch_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
}

// EventsConfig selects the engagement event transport.
type EventsConfig struct {
	// Transport is "memory" (in-process) or "nats" (JetStream, requires
	// a binary built with -tags nats).
	Transport string `koanf:"transport"`
	Topic     string `koanf:"topic"`

	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`

	RetryCount        int           `koanf:"retry_count"`
	RetryInterval     time.Duration `koanf:"retry_interval"`
	ThrottlePerSecond int64         `koanf:"throttle_per_second"`
}

// SecurityConfig holds token verification, CORS and rate limit settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
