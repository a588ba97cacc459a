// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/spotmap/internal/cache"
	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/tiles"
	ws "github.com/tomtom215/spotmap/internal/websocket"
)

// TileService builds tiles. *tiles.Aggregator implements it.
type TileService interface {
	GetTile(ctx context.Context, z, x, y float64, opts tiles.Options) (*models.TileResponse, error)
}

// Leaderboard serves and rebuilds popularity rankings.
// *leaderboard.Builder implements it.
type Leaderboard interface {
	FetchPopular(ctx context.Context, limit int, viewerID string) ([]models.PopularSpot, error)
	RebuildWithTrigger(ctx context.Context, maxEntries int, trigger string) ([]models.LeaderboardEntry, error)
}

// EngagementPublisher queues engagement events. *events.Bus implements it.
type EngagementPublisher interface {
	PublishEngagement(ctx context.Context, ev *models.EngagementEvent) error
}

// Pinger reports store reachability. *database.DB implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes a circuit breaker state. *owners.Enricher
// implements it.
type BreakerReporter interface {
	BreakerState() string
}

// CacheStatsReporter exposes tile cache counters. *cache.MemoryTileCache
// implements it.
type CacheStatsReporter interface {
	Stats() cache.Stats
}

// CachePolicy is the Cache-Control policy for tile responses.
type CachePolicy struct {
	PrivateMaxAge        time.Duration
	PublicMaxAge         time.Duration
	StaleWhileRevalidate time.Duration
}

// DefaultCachePolicy is 15s private, 30s public with 60s
// stale-while-revalidate.
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{
		PrivateMaxAge:        15 * time.Second,
		PublicMaxAge:         30 * time.Second,
		StaleWhileRevalidate: 60 * time.Second,
	}
}

func (p CachePolicy) header(authenticated bool) string {
	if authenticated {
		return fmt.Sprintf("private, max-age=%d", int(p.PrivateMaxAge.Seconds()))
	}
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(p.PublicMaxAge.Seconds()), int(p.StaleWhileRevalidate.Seconds()))
}

// Deps are the collaborators of Handler. Events and Hub may be nil; the
// corresponding endpoints then answer 503.
type Deps struct {
	Tiles       TileService
	Leaderboard Leaderboard
	Events      EngagementPublisher
	Store       Pinger
	Hub         *ws.Hub
	// Owners and TileCache add detail to the readiness report. Optional.
	Owners      BreakerReporter
	TileCache   CacheStatsReporter
	CachePolicy CachePolicy
	// RebuildTimeout bounds a manual leaderboard rebuild.
	RebuildTimeout time.Duration
	// WSOrigins are the origins accepted for websocket upgrades.
	WSOrigins []string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_tiles.go: map tiles
//   - handlers_spots.go: popular spots and engagement
//   - handlers_leaderboard.go: manual rebuild
//   - handlers_health.go: probes
//   - handlers_websocket.go: live notifications
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler returns a Handler. Zero cache policy values fall back to
// DefaultCachePolicy.
func NewHandler(deps Deps) *Handler {
	def := DefaultCachePolicy()
	if deps.CachePolicy.PrivateMaxAge <= 0 {
		deps.CachePolicy.PrivateMaxAge = def.PrivateMaxAge
	}
	if deps.CachePolicy.PublicMaxAge <= 0 {
		deps.CachePolicy.PublicMaxAge = def.PublicMaxAge
	}
	if deps.CachePolicy.StaleWhileRevalidate <= 0 {
		deps.CachePolicy.StaleWhileRevalidate = def.StaleWhileRevalidate
	}
	if deps.RebuildTimeout <= 0 {
		deps.RebuildTimeout = 2 * time.Minute
	}
	return &Handler{deps: deps, startTime: time.Now()}
}
