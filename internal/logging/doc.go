// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package logging is the process-wide zerolog logger.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Str("tile", "12/1944/1569").Msg("Tile built")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Owner lookup failed")
//
// Always terminate an event with Msg or Send; an unterminated event is
// never written.
//
// # Configuration
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json or console (default: json)
//	LOG_CALLER  include file:line (default: false)
//
// # Request Correlation
//
// The HTTP middleware stores a request ID in the request context and the
// leaderboard scheduler stores a correlation ID for each rebuild. Ctx adds
// whichever is present to every line, and the engagement bus copies the
// ID into message metadata so consumer logs can be joined with the
// originating request.
//
// # Adapters
//
// NewSlogLogger feeds sutureslog, and NewWatermillLogger feeds the
// Watermill router and publishers. Both write through the global logger,
// so Init and SetLogger apply to them too.
//
// # Testing
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
package logging
