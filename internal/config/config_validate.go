// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// Validate checks that configuration values are present and in range.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateTiles,
		c.validateLeaderboard,
		c.validateOwners,
		c.validateEvents,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateTiles() error {
	t := c.Tiles
	if t.CacheCapacity < 1 {
		return fmt.Errorf("TILE_CACHE_CAPACITY must be at least 1")
	}
	if t.CacheTTL < time.Second {
		return fmt.Errorf("TILE_CACHE_TTL must be at least 1s")
	}
	if t.MaxResults < 1 || t.MaxResults > 10000 {
		return fmt.Errorf("TILE_MAX_RESULTS must be between 1 and 10000")
	}
	if t.DOMBudget < 1 {
		return fmt.Errorf("TILE_DOM_BUDGET must be at least 1")
	}
	if t.PrivateMaxAge < 0 || t.PublicMaxAge < 0 || t.StaleWhileRevalidate < 0 {
		return fmt.Errorf("tile Cache-Control durations must not be negative")
	}
	return nil
}

// Leaderboard bounds
const (
	leaderboardMinEntries = 5
	leaderboardMaxEntries = 200
	leaderboardMinPeriod  = 10 * time.Second
)

func (c *Config) validateLeaderboard() error {
	l := c.Leaderboard
	if l.MaxEntries < leaderboardMinEntries || l.MaxEntries > leaderboardMaxEntries {
		return fmt.Errorf("LEADERBOARD_MAX_ENTRIES must be between %d and %d", leaderboardMinEntries, leaderboardMaxEntries)
	}
	if l.Interval < leaderboardMinPeriod {
		return fmt.Errorf("LEADERBOARD_INTERVAL must be at least %s", leaderboardMinPeriod)
	}
	if l.StaleAfter < leaderboardMinPeriod {
		return fmt.Errorf("LEADERBOARD_STALE_AFTER must be at least %s", leaderboardMinPeriod)
	}
	switch l.Store {
	case "duckdb":
	case "badger":
		if l.BadgerDir == "" {
			return fmt.Errorf("LEADERBOARD_BADGER_DIR is required when LEADERBOARD_STORE=badger")
		}
	default:
		return fmt.Errorf("LEADERBOARD_STORE must be one of: duckdb, badger")
	}
	return nil
}

func (c *Config) validateOwners() error {
	if c.Owners.BatchSize < 1 || c.Owners.BatchSize > 5000 {
		return fmt.Errorf("OWNER_BATCH_SIZE must be between 1 and 5000")
	}
	if c.Owners.BreakerFailures < 1 {
		return fmt.Errorf("OWNER_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := c.Events
	if e.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required")
	}
	if e.RetryCount < 0 {
		return fmt.Errorf("EVENTS_RETRY_COUNT must not be negative")
	}
	switch e.Transport {
	case "memory":
		return nil
	case "nats":
		return validateNATSURL(e.NATSURL)
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats")
	}
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("NATS_URL host is required")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.JWTSecret != "" && len(s.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if s.RateLimitDisabled {
		return nil
	}
	if s.RateLimitReqs < 1 || s.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if s.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
