// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/spotmap/config.yaml",
	"/etc/spotmap/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default filled in.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/spotmap.duckdb",
			MaxMemory: "1GB",
		},
		Tiles: TilesConfig{
			CacheCapacity:        100,
			CacheTTL:             60 * time.Second,
			SyncInterval:         60 * time.Second,
			MaxResults:           2000,
			DOMBudget:            300,
			PrivateMaxAge:        15 * time.Second,
			PublicMaxAge:         30 * time.Second,
			StaleWhileRevalidate: 60 * time.Second,
		},
		Leaderboard: LeaderboardConfig{
			MaxEntries:     50,
			Interval:       5 * time.Minute,
			StaleAfter:     10 * time.Minute,
			RebuildTimeout: 2 * time.Minute,
			Store:          "duckdb",
			BadgerDir:      "/data/leaderboard",
		},
		Owners: OwnersConfig{
			BatchSize:       2000,
			CacheTTL:        30 * time.Second,
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
		},
		Events: EventsConfig{
			Transport:     "memory",
			Topic:         "spot.engagement",
			NATSURL:       "nats://127.0.0.1:4222",
			StoreDir:      "/data/nats",
			DurableName:   "engagement-counter",
			QueueGroup:    "counters",
			RetryCount:    3,
			RetryInterval: 100 * time.Millisecond,
		},
		Security: SecurityConfig{
			TokenTTL:        24 * time.Hour,
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated strings for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_demo_data":    "database.seed_demo_data",

	// Tiles
	"tile_cache_capacity":         "tiles.cache_capacity",
	"tile_cache_ttl":              "tiles.cache_ttl",
	"tile_sync_interval":          "tiles.sync_interval",
	"tile_max_results":            "tiles.max_results",
	"tile_dom_budget":             "tiles.dom_budget",
	"tile_private_max_age":        "tiles.private_max_age",
	"tile_public_max_age":         "tiles.public_max_age",
	"tile_stale_while_revalidate": "tiles.stale_while_revalidate",

	// Leaderboard
	"leaderboard_max_entries":     "leaderboard.max_entries",
	"leaderboard_interval":        "leaderboard.interval",
	"leaderboard_stale_after":     "leaderboard.stale_after",
	"leaderboard_rebuild_timeout": "leaderboard.rebuild_timeout",
	"leaderboard_store":           "leaderboard.store",
	"leaderboard_badger_dir":      "leaderboard.badger_dir",

	// Owners
	"owner_batch_size":       "owners.batch_size",
	"owner_cache_ttl":        "owners.cache_ttl",
	"owner_breaker_timeout":  "owners.breaker_timeout",
	"owner_breaker_failures": "owners.breaker_failures",

	// Events
	"events_transport":           "events.transport",
	"events_topic":               "events.topic",
	"nats_url":                   "events.nats_url",
	"nats_embedded":              "events.embedded_server",
	"nats_store_dir":             "events.store_dir",
	"nats_durable_name":          "events.durable_name",
	"nats_queue_group":           "events.queue_group",
	"events_retry_count":         "events.retry_count",
	"events_retry_interval":      "events.retry_interval",
	"events_throttle_per_second": "events.throttle_per_second",

	// Security
	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown variables map to "" and are ignored.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - TILE_CACHE_TTL -> tiles.cache_ttl
//   - LEADERBOARD_STORE -> leaderboard.store
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
