// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package metrics exposes Prometheus instrumentation for the tile service,
// the leaderboard, the owner lookups and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotmap_db_query_duration_seconds",
			Help:    "Duration of spot store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_db_query_errors_total",
			Help: "Total number of spot store query errors",
		},
		[]string{"operation"},
	)

	// Tile Cache Metrics
	TileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotmap_tile_cache_hits_total",
			Help: "Total number of tile cache hits",
		},
	)

	TileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotmap_tile_cache_misses_total",
			Help: "Total number of tile cache misses",
		},
	)

	TileCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmap_tile_cache_entries",
			Help: "Current number of cached tiles",
		},
	)

	// Tile Aggregation Metrics
	TileRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_tile_requests_total",
			Help: "Tiles served by resolved layer and source",
		},
		[]string{"layer", "source"}, // source: "computed", "shared", "cached", "since"
	)

	TileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spotmap_tile_compute_duration_seconds",
			Help:    "Time to compute an uncached tile",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	TileDensity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spotmap_tile_density",
			Help:    "Filtered spot count per computed tile",
			Buckets: []float64{0, 10, 50, 100, 300, 1000, 2000},
		},
	)

	TileResultCapHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotmap_tile_result_cap_hits_total",
			Help: "Number of tile queries truncated at the raw result cap",
		},
	)

	// Leaderboard Metrics
	LeaderboardRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spotmap_leaderboard_rebuild_duration_seconds",
			Help:    "Duration of leaderboard rebuilds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LeaderboardRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_leaderboard_rebuilds_total",
			Help: "Leaderboard rebuilds by trigger and outcome",
		},
		[]string{"trigger", "result"}, // trigger: "schedule", "empty", "stale", "manual"
	)

	LeaderboardEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmap_leaderboard_entries",
			Help: "Entries written by the last leaderboard rebuild",
		},
	)

	LeaderboardStaleDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotmap_leaderboard_stale_entries_total",
			Help: "Leaderboard entries skipped because their spot no longer exists",
		},
	)

	// Owner Lookup Metrics
	OwnerLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_owner_lookups_total",
			Help: "Owner metadata batch lookups by result",
		},
		[]string{"result"}, // result: "success", "failure", "rejected", "cached"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spotmap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Engagement Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_engagement_events_published_total",
			Help: "Engagement events published by kind",
		},
		[]string{"kind"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_engagement_events_processed_total",
			Help: "Engagement events consumed by result",
		},
		[]string{"result"}, // result: "applied", "invalid", "not_found", "error"
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmap_websocket_connections",
			Help: "Currently connected websocket clients",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotmap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotmap_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmap_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)
)

// RecordDBQuery records a spot store query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordLeaderboardRebuild records the outcome of one rebuild.
func RecordLeaderboardRebuild(trigger string, duration time.Duration, entries int, err error) {
	LeaderboardRebuildDuration.Observe(duration.Seconds())
	if err != nil {
		LeaderboardRebuilds.WithLabelValues(trigger, "error").Inc()
		return
	}
	LeaderboardRebuilds.WithLabelValues(trigger, "success").Inc()
	LeaderboardEntries.Set(float64(entries))
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
