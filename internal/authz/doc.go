// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package authz authorizes API requests with Casbin RBAC.
//
// The embedded model matches paths with keyMatch2 so policies can use
// chi-style parameters:
//
//	p, viewer, /api/v1/spots/:id/engagement, write
//	p, admin, /api/v1/leaderboard/rebuild, write
//	g, admin, viewer
//
// Requests without a token are evaluated as the "anonymous" role. The
// subject is the viewer id from the token, and the role claim is checked
// when the subject has no direct grant.
package authz
