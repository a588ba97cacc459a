// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/events"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/validation"
)

const maxEngagementBody = 4 << 10

// PopularSpots serves GET /api/v1/spots/popular?limit=N.
func (h *Handler) PopularSpots(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := queryInt(r.URL.Query(), "limit")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	req := PopularRequest{Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	spots, err := h.deps.Leaderboard.FetchPopular(r.Context(), req.Limit, auth.ViewerIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to load popular spots", err)
		return
	}
	if spots == nil {
		spots = []models.PopularSpot{}
	}
	respondSuccess(w, r, http.StatusOK, spots, start, len(spots))
}

// Engagement serves POST /api/v1/spots/{id}/engagement. The event is
// queued and applied asynchronously, so the response is 202.
func (h *Handler) Engagement(w http.ResponseWriter, r *http.Request) {
	if h.deps.Events == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Event bus not configured", nil)
		return
	}

	spotID := strings.TrimSpace(chi.URLParam(r, "id"))
	if spotID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "spot id is required", nil)
		return
	}

	var req EngagementRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEngagementBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", err)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body must be JSON", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ev := &models.EngagementEvent{
		SpotID:   spotID,
		Kind:     models.EngagementKind(req.Kind),
		ViewerID: auth.ViewerIDFromContext(r.Context()),
	}
	if err := h.deps.Events.PublishEngagement(r.Context(), ev); err != nil {
		if errors.Is(err, events.ErrInvalidEvent) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid engagement event", err)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Failed to queue engagement", err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("spot_id", sanitizeLogValue(spotID)).
		Str("kind", req.Kind).
		Str("event_id", ev.EventID).
		Msg("Engagement queued")
	respondSuccess(w, r, http.StatusAccepted, ev, time.Time{}, 0)
}
