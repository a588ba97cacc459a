// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Command server runs the spotmap HTTP service.

Process layout under Suture v4 supervision:

	RootSupervisor ("spotmap")
	├── RankingSupervisor ("ranking-layer")
	│   ├── leaderboard-scheduler
	│   └── tile-cache-janitor
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   └── engagement-router
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Spot store: DuckDB, optionally seeded with demo data
 4. Owner enricher: go-cache plus gobreaker around owner lookups
 5. Leaderboard snapshot: DuckDB table or BadgerDB directory
 6. Tile aggregator and leaderboard builder
 7. Engagement bus: in-process Watermill GoChannel or NATS JetStream
 8. Authentication (JWT) and authorization (Casbin)
 9. Supervisor tree and HTTP server

# Configuration

Every setting has an environment variable; the most common:

	HTTP_PORT=3857
	DUCKDB_PATH=/data/spotmap.duckdb
	SEED_DEMO_DATA=true
	JWT_SECRET=...                  required
	LEADERBOARD_STORE=badger
	LEADERBOARD_BADGER_DIR=/data/leaderboard
	EVENTS_TRANSPORT=nats           requires -tags nats
	LOG_LEVEL=debug LOG_FORMAT=console

# Build Tags

	go build ./cmd/server               in-process engagement bus only
	go build -tags nats ./cmd/server    adds the NATS JetStream transport

# Tokens

Tokens are normally issued by an identity provider sharing JWT_SECRET.
For development, the token subcommand prints one:

	JWT_SECRET=... server token -viewer alice -role admin

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, the hub closes client connections and the engagement
router finishes in-flight messages before the stores are closed.
*/
package main
