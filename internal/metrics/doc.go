// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Package metrics registers the Prometheus collectors for spotmap.

All collectors are created with promauto on the default registry and are
served by promhttp at GET /metrics.

# Collectors

Store:

	spotmap_db_query_duration_seconds{operation}
	spotmap_db_query_errors_total{operation}

Tiles:

	spotmap_tile_cache_hits_total, spotmap_tile_cache_misses_total
	spotmap_tile_cache_entries
	spotmap_tile_requests_total{layer,source}
	spotmap_tile_compute_duration_seconds
	spotmap_tile_density
	spotmap_tile_result_cap_hits_total

Leaderboard:

	spotmap_leaderboard_rebuild_duration_seconds
	spotmap_leaderboard_rebuilds_total{trigger,result}
	spotmap_leaderboard_entries
	spotmap_leaderboard_stale_entries_total

Owners and breakers:

	spotmap_owner_lookups_total{result}
	spotmap_circuit_breaker_state{name}
	spotmap_circuit_breaker_state_transitions_total{name,from_state,to_state}

Events, websocket and HTTP:

	spotmap_engagement_events_published_total{kind}
	spotmap_engagement_events_processed_total{result}
	spotmap_websocket_connections
	spotmap_api_requests_total{method,endpoint,status_code}
	spotmap_api_request_duration_seconds{method,endpoint}
	spotmap_api_active_requests

HTTP endpoints are labelled with the chi route pattern, so every tile
request shares the /api/v1/tiles/{z}/{x}/{y} series.

# Example queries

	histogram_quantile(0.95, rate(spotmap_tile_compute_duration_seconds_bucket[5m]))
	rate(spotmap_tile_cache_hits_total[5m]) /
	  (rate(spotmap_tile_cache_hits_total[5m]) + rate(spotmap_tile_cache_misses_total[5m]))
	spotmap_circuit_breaker_state{name="owner-store"} == 2
*/
package metrics
