// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/leaderboard"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/validation"
)

// RebuildLeaderboard serves POST /api/v1/leaderboard/rebuild?max=N.
// Without max the builder's configured size is used. Access is restricted
// by the router to the admin role.
func (h *Handler) RebuildLeaderboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	maxEntries, err := queryInt(r.URL.Query(), "max")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	req := RebuildRequest{Max: maxEntries}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deps.RebuildTimeout)
	defer cancel()

	entries, err := h.deps.Leaderboard.RebuildWithTrigger(ctx, req.Max, leaderboard.TriggerManual)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Leaderboard rebuild failed", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("viewer_id", auth.ViewerIDFromContext(r.Context())).
		Int("entries", len(entries)).
		Msg("Manual leaderboard rebuild")
	respondSuccess(w, r, http.StatusOK, entries, start, len(entries))
}
