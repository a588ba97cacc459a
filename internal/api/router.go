// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/authz"
	"github.com/tomtom215/spotmap/internal/middleware"
)

// Router wires handlers, authentication and policy into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	jwt           *auth.JWTManager
	authz         *authz.Middleware
}

// NewRouter returns a Router. jwtm and enforcer are required: every route
// resolves an optional viewer, and the rebuild route is policy guarded.
func NewRouter(handler *Handler, mw *ChiMiddleware, jwtm *auth.JWTManager, enforcer *authz.Enforcer) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		jwt:           jwtm,
		authz:         authz.NewMiddleware(enforcer, writeAuthError),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.jwt.Optional(writeAuthError))

		// Websocket upgrades need the raw writer, so no compression here.
		r.Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Get("/tiles/{z}/{x}/{y}", router.handler.Tile)
			r.Get("/spots/popular", router.handler.PopularSpots)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Use(router.jwt.Required(writeAuthError))
			r.Use(router.authz.AuthorizeRequest)

			r.Post("/spots/{id}/engagement", router.handler.Engagement)
			r.With(router.authz.Authorize("/api/v1/leaderboard/rebuild", authz.ActionWrite)).
				Post("/leaderboard/rebuild", router.handler.RebuildLeaderboard)
		})
	})

	return r
}
