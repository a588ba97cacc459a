// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Package supervisor runs long-lived components under a suture v4 tree.

The tree has three layers under a root named "spotmap":

	ranking-layer    leaderboard scheduler, tile cache janitor
	messaging-layer  websocket hub, engagement event router
	api-layer        HTTP server

A component that panics or returns an error is restarted by its layer's
supervisor with backoff. Failures do not cross layers, so a crashing
event router leaves tile serving untouched.

Supervisor events are logged through sutureslog on the slog bridge from
internal/logging. The services themselves live in supervisor/services.
*/
package supervisor
