// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Package api exposes the HTTP interface on a chi router.

Endpoints:

	GET  /api/v1/tiles/{z}/{x}/{y}         map tile (bare TileResponse body)
	GET  /api/v1/spots/popular?limit=N     ranked spots
	POST /api/v1/spots/{id}/engagement     queue a like/unlike/comment/view
	POST /api/v1/leaderboard/rebuild?max=N admin only
	GET  /api/v1/ws                        live notifications
	GET  /api/v1/health/live, /ready       probes
	GET  /metrics                          Prometheus

Every endpoint except the tile endpoint answers with the models.APIResponse
envelope. Errors use the same envelope with an ErrCode* code.

A bearer token is optional on read endpoints. When present it must verify,
otherwise the request gets 401. Write endpoints require a token and are
checked against the Casbin policy.
*/
package api
