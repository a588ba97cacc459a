// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/spotmap/internal/leaderboard"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/models"
)

// Rebuilder is satisfied by *leaderboard.Builder.
type Rebuilder interface {
	RebuildWithTrigger(ctx context.Context, maxEntries int, trigger string) ([]models.LeaderboardEntry, error)
}

// SchedulerConfig controls LeaderboardScheduler.
type SchedulerConfig struct {
	// Interval between rebuilds. Default: 5m
	Interval time.Duration
	// MaxEntries per rebuild; zero uses the builder default.
	MaxEntries int
	// Timeout bounds a single rebuild. Default: 2m
	Timeout time.Duration
	// RunOnStart rebuilds immediately instead of waiting one interval.
	RunOnStart bool
}

// LeaderboardScheduler rebuilds the leaderboard on a fixed interval.
// A failed rebuild is logged and retried on the next tick; it does not
// stop the service.
type LeaderboardScheduler struct {
	builder Rebuilder
	cfg     SchedulerConfig
}

// NewLeaderboardScheduler applies defaults to cfg.
func NewLeaderboardScheduler(builder Rebuilder, cfg SchedulerConfig) *LeaderboardScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &LeaderboardScheduler{builder: builder, cfg: cfg}
}

func (s *LeaderboardScheduler) Serve(ctx context.Context) error {
	if s.cfg.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *LeaderboardScheduler) runOnce(ctx context.Context) {
	rctx, cancel := context.WithTimeout(logging.ContextWithNewCorrelationID(ctx), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	entries, err := s.builder.RebuildWithTrigger(rctx, s.cfg.MaxEntries, leaderboard.TriggerSchedule)
	if err != nil {
		if ctx.Err() == nil {
			logging.CtxErr(rctx, err).Msg("Scheduled leaderboard rebuild failed")
		}
		return
	}
	logging.Ctx(rctx).Debug().
		Int("entries", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Scheduled leaderboard rebuild complete")
}

func (s *LeaderboardScheduler) String() string {
	return "leaderboard-scheduler"
}
