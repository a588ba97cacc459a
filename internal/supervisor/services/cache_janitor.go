// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/spotmap/internal/logging"
)

// ExpiringCache is satisfied by *cache.MemoryTileCache.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitor sweeps expired tiles so memory tracks the live working set
// rather than the LRU capacity.
type CacheJanitor struct {
	cache    ExpiringCache
	interval time.Duration
}

// NewCacheJanitor sweeps every interval, defaulting to one minute.
func NewCacheJanitor(c ExpiringCache, interval time.Duration) *CacheJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitor{cache: c, interval: interval}
}

func (j *CacheJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.cache.CleanupExpired(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired tiles evicted")
			}
		}
	}
}

func (j *CacheJanitor) String() string {
	return "tile-cache-janitor"
}
