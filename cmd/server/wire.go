// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/spotmap/internal/api"
	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/authz"
	"github.com/tomtom215/spotmap/internal/cache"
	"github.com/tomtom215/spotmap/internal/config"
	"github.com/tomtom215/spotmap/internal/database"
	"github.com/tomtom215/spotmap/internal/events"
	"github.com/tomtom215/spotmap/internal/leaderboard"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/owners"
	"github.com/tomtom215/spotmap/internal/snapshot"
	"github.com/tomtom215/spotmap/internal/supervisor"
	"github.com/tomtom215/spotmap/internal/supervisor/services"
	"github.com/tomtom215/spotmap/internal/tiles"
	ws "github.com/tomtom215/spotmap/internal/websocket"
)

// app holds every long-lived component. Fields are populated in
// dependency order by newApp and released in reverse by Close.
type app struct {
	cfg *config.Config

	db        *database.DB
	badger    *snapshot.BadgerStore
	tileCache *cache.MemoryTileCache
	tiles     *tiles.Aggregator
	builder   *leaderboard.Builder
	hub       *ws.Hub
	bus       *events.Bus
	counter   *events.CounterHandler
	enforcer  *authz.Enforcer
	jwt       *auth.JWTManager
	handler   http.Handler

	closers []func() error
}

func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open spot store: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)

	enricher := owners.NewEnricher(a.db, owners.Options{
		BatchSize:       cfg.Owners.BatchSize,
		CacheTTL:        cfg.Owners.CacheTTL,
		BreakerFailures: cfg.Owners.BreakerFailures,
		BreakerTimeout:  cfg.Owners.BreakerTimeout,
	})

	var snap leaderboard.Snapshot = a.db
	if cfg.Leaderboard.Store == "badger" {
		a.badger, err = snapshot.Open(cfg.Leaderboard.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("open leaderboard snapshot: %w", err)
		}
		a.closers = append(a.closers, a.badger.Close)
		snap = a.badger
	}

	a.tileCache = cache.NewMemoryTileCache(cfg.Tiles.CacheCapacity, cfg.Tiles.CacheTTL)
	a.tiles = tiles.New(a.db, enricher, a.tileCache, tiles.Config{
		MaxResults:   cfg.Tiles.MaxResults,
		SyncInterval: cfg.Tiles.SyncInterval,
		DOMBudget:    cfg.Tiles.DOMBudget,
	})

	a.hub = ws.NewHub()

	a.builder = leaderboard.NewBuilder(a.db, snap, enricher, leaderboard.Config{
		MaxEntries:     cfg.Leaderboard.MaxEntries,
		StaleAfter:     cfg.Leaderboard.StaleAfter,
		RebuildTimeout: cfg.Leaderboard.RebuildTimeout,
	})
	a.builder.OnRebuilt(func(entries []models.LeaderboardEntry) {
		a.hub.BroadcastLeaderboardRebuilt(entries)
	})

	a.bus, err = events.NewBus(&cfg.Events, logging.NewWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("create engagement bus: %w", err)
	}
	a.closers = append(a.closers, a.bus.Close)
	a.counter = events.NewCounterHandler(a.db, a.hub)

	a.jwt, err = auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}
	a.enforcer, err = authz.NewEnforcer(nil)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}
	a.closers = append(a.closers, func() error { a.enforcer.Close(); return nil })

	h := api.NewHandler(api.Deps{
		Tiles:       a.tiles,
		Leaderboard: a.builder,
		Events:      a.bus,
		Store:       a.db,
		Hub:         a.hub,
		Owners:      enricher,
		TileCache:   a.tileCache,
		CachePolicy: api.CachePolicy{
			PrivateMaxAge:        cfg.Tiles.PrivateMaxAge,
			PublicMaxAge:         cfg.Tiles.PublicMaxAge,
			StaleWhileRevalidate: cfg.Tiles.StaleWhileRevalidate,
		},
		RebuildTimeout: cfg.Leaderboard.RebuildTimeout,
		WSOrigins:      cfg.Security.CORSOrigins,
	})
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	a.handler = api.NewRouter(h, mw, a.jwt, a.enforcer).Setup()

	return a, nil
}

// newEngagementRouter is the factory for the supervised router service.
func (a *app) newEngagementRouter() (services.MessageRouter, error) {
	return events.NewRouter(events.RouterConfigFrom(&a.cfg.Events), a.bus, a.counter, logging.NewWatermillLogger())
}

// register adds every service to the tree.
func (a *app) register(tree *supervisor.Tree, server services.HTTPServer) {
	tree.AddRankingService(services.NewLeaderboardScheduler(a.builder, services.SchedulerConfig{
		Interval:   a.cfg.Leaderboard.Interval,
		MaxEntries: a.cfg.Leaderboard.MaxEntries,
		Timeout:    a.cfg.Leaderboard.RebuildTimeout,
		RunOnStart: true,
	}))
	tree.AddRankingService(services.NewCacheJanitor(a.tileCache, a.cfg.Tiles.CacheTTL))

	tree.AddMessagingService(services.NewHubService(a.hub))
	tree.AddMessagingService(services.NewEngagementRouterService(a.newEngagementRouter))

	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout))
}

func (a *app) httpServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.Timeout,
		WriteTimeout:      a.cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
