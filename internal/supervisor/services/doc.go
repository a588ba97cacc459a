// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Package services adapts spotmap components to suture.Service.

Each wrapper turns a component lifecycle into Serve(ctx) error and names
itself through fmt.Stringer for supervisor events:

	HTTPServerService       *http.Server, graceful Shutdown on cancel
	HubService              websocket.Hub.RunWithContext
	EngagementRouterService a fresh events.Router per start
	LeaderboardScheduler    periodic leaderboard rebuilds
	CacheJanitor            periodic tile cache expiry sweep

Wrappers depend on small interfaces rather than concrete packages so
they can be tested with fakes.
*/
package services
