// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// HealthLive reports that the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Time{}, 0)
}

// HealthReady returns 200 when the spot store answers a ping and 503
// otherwise. An open owner breaker does not fail readiness: tiles are still
// served, with default owner metadata.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := h.deps.Store.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store unavailable", err)
		return
	}

	data := map[string]interface{}{
		"ready":    true,
		"database": "ok",
	}
	if h.deps.Hub != nil {
		data["websocket_clients"] = h.deps.Hub.ClientCount()
	}
	if h.deps.Owners != nil {
		data["owner_lookup"] = h.deps.Owners.BreakerState()
	}
	if h.deps.TileCache != nil {
		stats := h.deps.TileCache.Stats()
		data["tile_cache"] = map[string]interface{}{
			"size":     stats.Size,
			"hit_rate": stats.HitRate(),
		}
	}
	respondSuccess(w, r, http.StatusOK, data, time.Time{}, 0)
}
