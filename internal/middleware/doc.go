// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package middleware provides chi-compatible HTTP middleware shared by the
// API router: request ids, access logging and Prometheus instrumentation.
//
// Order matters. RequestID must run first so the access log and error
// envelopes carry the id:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.AccessLog)
//	r.Use(middleware.PrometheusMetrics)
package middleware
