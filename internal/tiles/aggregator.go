// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package tiles turns spots stored by latitude into map tile responses:
// filtered, layer-resolved, clustered and enriched with owner metadata.
//
// Tile responses are cached by (z,x,y) only. Filter options are not part of
// the cache key, so a tile computed with one filter combination is served
// to any request for the same coordinate until the entry expires or the
// cache is cleared.
package tiles

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/spotmap/internal/cache"
	"github.com/tomtom215/spotmap/internal/cluster"
	"github.com/tomtom215/spotmap/internal/geo"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/popularity"
)

// Layer resolution thresholds.
const (
	denseThreshold   = 1000
	crowdedThreshold = 300
	clusterMaxZoom   = 8
	pulseMaxZoom     = 12
)

// MaxCategories is the largest category filter pushed into the store.
const MaxCategories = 10

// Store is the spot query the aggregator needs. database.DB implements it.
type Store interface {
	QueryByLatRange(ctx context.Context, minLat, maxLat float64, categories []models.Category, limit int) ([]*models.Spot, error)
}

// OwnerLookup resolves owner metadata in one batch. owners.Enricher
// implements it. Missing owners read as the zero value.
type OwnerLookup interface {
	Lookup(ctx context.Context, ids []string) map[string]models.OwnerMetrics
}

// Options are the per-request filters.
type Options struct {
	// Layer forces the rendering layer when non-empty.
	Layer       models.Layer
	Categories  []models.Category
	PremiumOnly bool
	// ViewerID is the authenticated caller, empty for anonymous requests.
	ViewerID string
	// Since enables the conditional shortcut: a cached tile generated at or
	// after Since is returned without touching the store.
	Since time.Time
}

// Config holds the aggregator tunables.
type Config struct {
	MaxResults   int
	SyncInterval time.Duration
	DOMBudget    int
	// ComputeTimeout bounds one shared tile computation. It is independent
	// of any single caller's deadline.
	ComputeTimeout time.Duration
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		MaxResults:     2000,
		SyncInterval:   60 * time.Second,
		DOMBudget:      300,
		ComputeTimeout: 10 * time.Second,
	}
}

// Aggregator builds tile responses. It is safe for concurrent use.
type Aggregator struct {
	store   Store
	owners  OwnerLookup
	cache   cache.TileCache
	cfg     Config
	cluster cluster.Options
	now     func() time.Time
	flight  singleflight.Group
}

// New returns an Aggregator. A nil tileCache gets an in-memory cache with
// default bounds.
func New(store Store, owners OwnerLookup, tileCache cache.TileCache, cfg Config) *Aggregator {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = def.SyncInterval
	}
	if cfg.DOMBudget <= 0 {
		cfg.DOMBudget = def.DOMBudget
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = def.ComputeTimeout
	}
	if tileCache == nil {
		tileCache = cache.NewMemoryTileCache(0, 0)
	}
	return &Aggregator{
		store:   store,
		owners:  owners,
		cache:   tileCache,
		cfg:     cfg,
		cluster: cluster.DefaultOptions(),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// ClearCache drops every cached tile.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}

// ResolveLayer picks the rendering layer. An explicit layer always wins;
// otherwise high density forces clustering, then zoom decides.
func ResolveLayer(requested models.Layer, density, zoom int) models.Layer {
	if requested != "" {
		return requested
	}
	switch {
	case density > denseThreshold:
		return models.LayerCluster
	case density > crowdedThreshold:
		return models.LayerCluster
	case zoom <= clusterMaxZoom:
		return models.LayerCluster
	case zoom <= pulseMaxZoom:
		return models.LayerPulse
	default:
		return models.LayerBalloon
	}
}

// GetTile returns the tile at (z,x,y). Coordinates are normalized first:
// z is clamped to the supported zoom range and x,y are floored at zero.
// Store failures are returned unchanged in meaning and nothing is cached.
//
// Concurrent identical requests share one computation that runs detached
// from every caller's cancellation. A caller whose ctx ends stops waiting;
// the others still get the tile.
func (a *Aggregator) GetTile(ctx context.Context, z, x, y float64, opts Options) (*models.TileResponse, error) {
	key := geo.NormalizeTile(z, x, y)

	if cached, ok := a.cache.Get(key); ok {
		switch {
		case opts.Since.IsZero():
			metrics.TileRequests.WithLabelValues(layerOf(cached), "cached").Inc()
			return cached, nil
		case cached.GeneratedAt >= opts.Since.UnixMilli():
			metrics.TileRequests.WithLabelValues(layerOf(cached), "since").Inc()
			return cached, nil
		}
		// Older than the client's copy: recompute.
	}

	ch := a.flight.DoChan(flightKey(key, opts), func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ComputeTimeout)
		defer cancel()
		return a.compute(cctx, key, opts)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	resp := res.Val.(*models.TileResponse)
	source := "computed"
	if res.Shared {
		source = "shared"
	}
	metrics.TileRequests.WithLabelValues(layerOf(resp), source).Inc()
	return resp, nil
}

func (a *Aggregator) compute(ctx context.Context, key geo.TileKey, opts Options) (*models.TileResponse, error) {
	start := time.Now()
	defer func() { metrics.TileDuration.Observe(time.Since(start).Seconds()) }()

	log := logging.Ctx(ctx).With().Str("tile", key.String()).Logger()
	bounds := geo.TileBounds(key)

	categories := opts.Categories
	if len(categories) > MaxCategories {
		categories = categories[:MaxCategories]
	}

	raw, err := a.store.QueryByLatRange(ctx, bounds.MinLat, bounds.MaxLat, categories, a.cfg.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("query spots for tile %s: %w", key, err)
	}
	if len(raw) >= a.cfg.MaxResults {
		metrics.TileResultCapHits.Inc()
		log.Warn().Int("cap", a.cfg.MaxResults).Msg("Tile query hit result cap, results truncated")
	}

	spots := make([]*models.Spot, 0, len(raw))
	for _, s := range raw {
		if !bounds.ContainsLng(s.Lng) {
			continue
		}
		if opts.PremiumOnly && !s.Premium {
			continue
		}
		spots = append(spots, s)
	}

	density := len(spots)
	metrics.TileDensity.Observe(float64(density))
	layer := ResolveLayer(opts.Layer, density, key.Z)

	now := a.now()
	resp := &models.TileResponse{
		Z:           key.Z,
		X:           key.X,
		Y:           key.Y,
		GeneratedAt: now.UnixMilli(),
		NextSyncAt:  now.Add(a.cfg.SyncInterval).UnixMilli(),
		DOMBudget:   a.cfg.DOMBudget,
		Features:    []models.MapTileFeature{},
	}

	if density == 0 {
		return a.cacheTile(ctx, key, resp)
	}

	// The enricher degrades to defaults on failure, including a dead ctx.
	// Such a tile must not outlive this computation.
	owners := a.lookupOwners(ctx, spots)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich owners for tile %s: %w", key, err)
	}

	points := make([]cluster.Point, len(spots))
	for i, s := range spots {
		points[i] = cluster.Point{Index: i, Lat: s.Lat, Lng: s.Lng}
	}
	idx := cluster.New(a.cluster)
	idx.Load(points)
	results := idx.Clusters(bounds, key.Z)

	resp.Features = make([]models.MapTileFeature, 0, len(results))
	for _, r := range results {
		if r.Cluster {
			resp.Features = append(resp.Features, clusterFeature(r))
			continue
		}
		s := spots[r.Indices[0]]
		resp.Features = append(resp.Features, pointFeature(s, owners[s.OwnerID], layer, now))
	}

	log.Debug().Int("density", density).Str("layer", string(layer)).Int("features", len(resp.Features)).
		Bool("viewer", opts.ViewerID != "").Msg("Tile computed")

	return a.cacheTile(ctx, key, resp)
}

// cacheTile caches resp unless ctx ended while it was being built.
func (a *Aggregator) cacheTile(ctx context.Context, key geo.TileKey, resp *models.TileResponse) (*models.TileResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build tile %s: %w", key, err)
	}
	a.cache.Set(key, resp)
	return resp, nil
}

func (a *Aggregator) lookupOwners(ctx context.Context, spots []*models.Spot) map[string]models.OwnerMetrics {
	if a.owners == nil {
		return nil
	}
	ids := make([]string, 0, len(spots))
	seen := make(map[string]struct{}, len(spots))
	for _, s := range spots {
		if _, ok := seen[s.OwnerID]; ok || s.OwnerID == "" {
			continue
		}
		seen[s.OwnerID] = struct{}{}
		ids = append(ids, s.OwnerID)
	}
	return a.owners.Lookup(ctx, ids)
}

// clusterFeature always renders as the cluster layer: an aggregated marker
// has no pulse or balloon form.
func clusterFeature(r cluster.Result) models.MapTileFeature {
	id := "cluster-" + strconv.FormatInt(r.ClusterID, 10)
	if r.ClusterID == 0 {
		id = fmt.Sprintf("cluster-%.5f-%.5f", r.Lat, r.Lng)
	}
	return models.MapTileFeature{
		ID:         id,
		Kind:       models.FeatureKindCluster,
		Type:       models.LayerCluster,
		Geometry:   models.Geometry{Lat: r.Lat, Lng: r.Lng},
		Popularity: int64(r.Count),
		Cluster: &models.ClusterPayload{
			ClusterID:             r.ClusterID,
			PointCount:            r.Count,
			PointCountAbbreviated: cluster.Abbreviated(r.Count),
		},
	}
}

func pointFeature(s *models.Spot, owner models.OwnerMetrics, layer models.Layer, now time.Time) models.MapTileFeature {
	return models.MapTileFeature{
		ID:         s.ID,
		Kind:       models.FeatureKindPoint,
		Type:       layer,
		Geometry:   models.Geometry{Lat: s.Lat, Lng: s.Lng},
		Popularity: s.SafeLikes(),
		Premium:    s.Premium,
		Point: &models.PointPayload{
			Status: popularity.Lifecycle(s, now),
			Spot: models.SpotSummary{
				Title:              s.Title,
				Category:           s.Category,
				StartTime:          s.StartTime.UnixMilli(),
				EndTime:            s.EndTime.UnixMilli(),
				OwnerID:            s.OwnerID,
				OwnerPhoneVerified: owner.PhoneVerified,
				Likes:              s.SafeLikes(),
				CommentsCount:      s.SafeComments(),
				Promotion:          s.Promotion,
			},
		},
	}
}

// flightKey collapses concurrent computations of identical requests.
func flightKey(key geo.TileKey, opts Options) string {
	cats := make([]string, len(opts.Categories))
	for i, c := range opts.Categories {
		cats[i] = string(c)
	}
	slices.Sort(cats)
	return fmt.Sprintf("%s|%s|%s|%t", key, opts.Layer, strings.Join(cats, ","), opts.PremiumOnly)
}

func layerOf(resp *models.TileResponse) string {
	if len(resp.Features) == 0 {
		return "empty"
	}
	return string(resp.Features[0].Type)
}
