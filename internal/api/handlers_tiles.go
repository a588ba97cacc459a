// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/spotmap/internal/auth"
)

// Tile serves GET /api/v1/tiles/{z}/{x}/{y}.
//
// The body is the bare TileResponse, not the envelope. Authenticated
// responses are privately cacheable for a short time; anonymous ones are
// public with stale-while-revalidate.
func (h *Handler) Tile(w http.ResponseWriter, r *http.Request) {
	req, verr, err := parseTileRequest(r)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, pe.Error(), nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid tile request", err)
		return
	}
	if verr != nil {
		respondValidation(w, r, verr)
		return
	}

	viewerID := auth.ViewerIDFromContext(r.Context())
	resp, err := h.deps.Tiles.GetTile(r.Context(), float64(req.Z), float64(req.X), float64(req.Y), req.Options(viewerID))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to build tile", err)
		return
	}

	w.Header().Set("Cache-Control", h.deps.CachePolicy.header(viewerID != ""))
	w.Header().Add("Vary", "Authorization")
	writeJSON(w, http.StatusOK, resp)
}
