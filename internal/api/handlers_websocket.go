// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"net/http"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/logging"
	ws "github.com/tomtom215/spotmap/internal/websocket"
)

// WebSocket upgrades GET /api/v1/ws and registers the connection with the
// hub. The upgrader writes its own error response on failure.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live updates not available", nil)
		return
	}

	upgrader := ws.NewUpgrader(h.deps.WSOrigins)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.deps.Hub, conn, auth.ViewerIDFromContext(r.Context()))
	h.deps.Hub.Register <- client
	client.Start()
}
