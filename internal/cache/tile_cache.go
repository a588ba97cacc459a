// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package cache

import (
	"time"

	"github.com/tomtom215/spotmap/internal/geo"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
)

// Tile cache defaults.
const (
	DefaultTileCapacity = 100
	DefaultTileTTL      = 60 * time.Second
)

// TileCache stores computed tile responses by normalized tile coordinate.
// It is a pure accelerator: losing entries only costs latency.
//
// Keys deliberately exclude filter options, so a tile computed for one
// filter combination is served to every request for the same (z,x,y)
// until it expires.
type TileCache interface {
	Get(key geo.TileKey) (*models.TileResponse, bool)
	Set(key geo.TileKey, resp *models.TileResponse)
	Clear()
}

// MemoryTileCache is the in-process TileCache backed by an LRU with TTL.
type MemoryTileCache struct {
	lru *LRU[geo.TileKey, *models.TileResponse]
}

// NewMemoryTileCache returns a tile cache with the given bounds. Zero
// values take the defaults.
func NewMemoryTileCache(capacity int, ttl time.Duration) *MemoryTileCache {
	if capacity <= 0 {
		capacity = DefaultTileCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTileTTL
	}
	return &MemoryTileCache{lru: NewLRU[geo.TileKey, *models.TileResponse](capacity, ttl)}
}

// Get returns the cached response for key.
func (c *MemoryTileCache) Get(key geo.TileKey) (*models.TileResponse, bool) {
	resp, ok := c.lru.Get(key)
	if ok {
		metrics.TileCacheHits.Inc()
	} else {
		metrics.TileCacheMisses.Inc()
	}
	return resp, ok
}

// Set stores resp under key. Callers must not mutate resp afterwards.
func (c *MemoryTileCache) Set(key geo.TileKey, resp *models.TileResponse) {
	c.lru.Set(key, resp)
	metrics.TileCacheSize.Set(float64(c.lru.Len()))
}

// Clear drops all entries.
func (c *MemoryTileCache) Clear() {
	c.lru.Clear()
	metrics.TileCacheSize.Set(0)
}

// CleanupExpired removes expired tiles and returns how many were dropped.
func (c *MemoryTileCache) CleanupExpired() int {
	removed := c.lru.CleanupExpired()
	metrics.TileCacheSize.Set(float64(c.lru.Len()))
	return removed
}

// Stats returns the underlying LRU counters.
func (c *MemoryTileCache) Stats() Stats {
	return c.lru.Stats()
}

// SetClock replaces the time source. Intended for tests.
func (c *MemoryTileCache) SetClock(now func() time.Time) {
	c.lru.SetClock(now)
}
