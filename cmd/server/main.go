// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/spotmap/internal/config"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(cfg, os.Args[2:], os.Stdout); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		return
	}

	os.Exit(run(cfg))
}

// run owns the process lifetime so deferred cleanup happens before exit.
func run(cfg *config.Config) int {
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("leaderboard_store", cfg.Leaderboard.Store).
		Str("events_transport", cfg.Events.Transport).
		Msg("Starting spotmap")

	a, err := newApp(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize")
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error releasing resources")
		}
	}()

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	server := a.httpServer()
	a.register(tree, server)
	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Spotmap stopped")
	return 0
}
