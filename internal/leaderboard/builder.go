// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package leaderboard builds and serves the ranked popularity snapshot.
//
// A rebuild pulls the top spots by likes, comments and views, scores their
// union, and replaces the persisted snapshot atomically. Readers see either
// the previous snapshot or the new one, never a mix.
package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/popularity"
)

// Entry count bounds for a rebuild.
const (
	MinEntries     = 5
	MaxEntries     = 200
	DefaultEntries = 50
)

// Rebuild triggers, used as metric labels.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerEmpty    = "empty"
	TriggerStale    = "stale"
)

// ErrNoStore is returned when the builder has no spot or snapshot store.
var ErrNoStore = errors.New("leaderboard: no store configured")

// SpotStore is the spot access a rebuild needs. database.DB implements it.
type SpotStore interface {
	TopBy(ctx context.Context, field models.CounterField, limit int) ([]*models.Spot, error)
	GetSpots(ctx context.Context, ids []string) ([]*models.Spot, error)
}

// Snapshot persists the ranked entries. database.DB and
// snapshot.BadgerStore implement it.
type Snapshot interface {
	ReadLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) error
}

// OwnerLookup resolves owner metadata. Missing owners read as zero value.
type OwnerLookup interface {
	Lookup(ctx context.Context, ids []string) map[string]models.OwnerMetrics
}

// Config tunes the builder.
type Config struct {
	// MaxEntries is the size used for on-demand rebuilds from FetchPopular.
	MaxEntries int
	// StaleAfter is the age of the freshest entry past which FetchPopular
	// rebuilds before answering.
	StaleAfter time.Duration
	// RebuildTimeout bounds one shared rebuild, independent of the callers
	// waiting on it.
	RebuildTimeout time.Duration
}

// Builder rebuilds and reads the leaderboard. Safe for concurrent use.
type Builder struct {
	spots     SpotStore
	snapshot  Snapshot
	owners    OwnerLookup
	cfg       Config
	now       func() time.Time
	flight    singleflight.Group
	onRebuilt func([]models.LeaderboardEntry)
}

// NewBuilder wires a builder. owners may be nil, in which case every spot
// scores with default owner metadata.
func NewBuilder(spots SpotStore, snap Snapshot, owners OwnerLookup, cfg Config) *Builder {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultEntries
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 2 * time.Minute
	}
	return &Builder{
		spots:    spots,
		snapshot: snap,
		owners:   owners,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// OnRebuilt registers fn to be called with the new entries after every
// successful rebuild. Must be set before the builder is shared.
func (b *Builder) OnRebuilt(fn func([]models.LeaderboardEntry)) {
	b.onRebuilt = fn
}

// ClampEntries bounds n to [MinEntries, MaxEntries].
func ClampEntries(n int) int {
	return min(max(n, MinEntries), MaxEntries)
}

// Rebuild recomputes and persists the leaderboard with at most maxEntries
// rows; maxEntries <= 0 uses Config.MaxEntries. Concurrent rebuilds of the
// same size share one computation, which runs detached from the callers'
// cancellation. A caller whose ctx ends stops waiting without aborting it.
func (b *Builder) Rebuild(ctx context.Context, maxEntries int) ([]models.LeaderboardEntry, error) {
	return b.RebuildWithTrigger(ctx, maxEntries, TriggerManual)
}

// RebuildWithTrigger is Rebuild with the trigger recorded in metrics.
func (b *Builder) RebuildWithTrigger(ctx context.Context, maxEntries int, trigger string) ([]models.LeaderboardEntry, error) {
	if b.spots == nil || b.snapshot == nil {
		return nil, ErrNoStore
	}
	if maxEntries <= 0 {
		maxEntries = b.cfg.MaxEntries
	}
	n := ClampEntries(maxEntries)

	ch := b.flight.DoChan("rebuild:"+strconv.Itoa(n), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.RebuildTimeout)
		defer cancel()

		start := time.Now()
		entries, err := b.rebuild(rctx, n)
		metrics.RecordLeaderboardRebuild(trigger, time.Since(start), len(entries), err)
		if err != nil {
			logging.Ctx(rctx).Error().Err(err).Str("trigger", trigger).Msg("Leaderboard rebuild failed")
			return nil, err
		}
		logging.Ctx(rctx).Info().Str("trigger", trigger).Int("entries", len(entries)).
			Dur("duration", time.Since(start)).Msg("Leaderboard rebuilt")
		if b.onRebuilt != nil {
			b.onRebuilt(entries)
		}
		return entries, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.LeaderboardEntry), nil
	}
}

type scored struct {
	spot  *models.Spot
	score float64
}

func (b *Builder) rebuild(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	candidates, err := b.candidates(ctx, 2*n)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(candidates))
	for _, s := range candidates {
		ownerIDs = append(ownerIDs, s.OwnerID)
	}
	var owners map[string]models.OwnerMetrics
	if b.owners != nil {
		owners = b.owners.Lookup(ctx, ownerIDs)
	}

	now := b.now()
	ranked := make([]scored, 0, len(candidates))
	for _, s := range candidates {
		owner := owners[s.OwnerID]
		ranked = append(ranked, scored{spot: s, score: popularity.Score(s, &owner, now)})
	}
	slices.SortStableFunc(ranked, compareScored)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	entries := make([]models.LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = models.LeaderboardEntry{
			SpotID:          r.spot.ID,
			PopularityScore: r.score,
			Likes:           r.spot.SafeLikes(),
			CommentsCount:   r.spot.SafeComments(),
			ViewCount:       r.spot.SafeViews(),
			Rank:            i + 1,
			UpdatedAt:       now,
		}
	}

	if err := b.snapshot.ReplaceLeaderboard(ctx, entries); err != nil {
		return nil, fmt.Errorf("persist leaderboard: %w", err)
	}
	return entries, nil
}

// candidates runs the three top-N queries concurrently and unions them.
// When a spot appears in several lists the copy from the earliest list
// (likes, then comments, then views) is kept.
func (b *Builder) candidates(ctx context.Context, limit int) ([]*models.Spot, error) {
	fields := []models.CounterField{models.CounterLikes, models.CounterComments, models.CounterViews}
	lists := make([][]*models.Spot, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range fields {
		g.Go(func() error {
			spots, err := b.spots.TopBy(gctx, field, limit)
			if err != nil {
				return fmt.Errorf("top spots by %s: %w", field, err)
			}
			lists[i] = spots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, 3*limit)
	out := make([]*models.Spot, 0, 3*limit)
	for _, list := range lists {
		for _, s := range list {
			if s == nil {
				continue
			}
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}

// compareScored orders by score, likes, comments and creation time, all
// descending.
func compareScored(a, b scored) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.spot.SafeLikes(), a.spot.SafeLikes()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.spot.SafeComments(), a.spot.SafeComments()); c != 0 {
		return c
	}
	return b.spot.CreatedAt.Compare(a.spot.CreatedAt)
}

// FetchPopular returns up to limit popular spots joined with their current
// records. An empty snapshot, or one whose freshest entry is older than
// StaleAfter, is rebuilt first. Entries whose spot no longer exists are
// skipped.
func (b *Builder) FetchPopular(ctx context.Context, limit int, viewerID string) ([]models.PopularSpot, error) {
	if b.spots == nil || b.snapshot == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 {
		limit = DefaultEntries
	}
	limit = min(limit, MaxEntries)

	entries, err := b.snapshot.ReadLeaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	trigger := ""
	switch {
	case len(entries) == 0:
		trigger = TriggerEmpty
	case b.now().Sub(freshest(entries)) > b.cfg.StaleAfter:
		trigger = TriggerStale
	}
	if trigger != "" {
		if _, err := b.RebuildWithTrigger(ctx, b.cfg.MaxEntries, trigger); err != nil {
			return nil, err
		}
		entries, err = b.snapshot.ReadLeaderboard(ctx)
		if err != nil {
			return nil, fmt.Errorf("read leaderboard: %w", err)
		}
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].SpotID
	}
	spots, err := b.spots.GetSpots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load popular spots: %w", err)
	}

	out := make([]models.PopularSpot, 0, min(limit, len(entries)))
	dropped := 0
	for i := range entries {
		if len(out) == limit {
			break
		}
		if i >= len(spots) || spots[i] == nil {
			dropped++
			continue
		}
		out = append(out, models.PopularSpot{Entry: entries[i], Spot: *spots[i]})
	}
	if dropped > 0 {
		metrics.LeaderboardStaleDropped.Add(float64(dropped))
		logging.Ctx(ctx).Debug().Int("dropped", dropped).Msg("Skipped leaderboard entries for deleted spots")
	}

	logging.Ctx(ctx).Debug().Int("count", len(out)).Bool("authenticated", viewerID != "").Msg("Popular spots served")
	return out, nil
}

func freshest(entries []models.LeaderboardEntry) time.Time {
	var t time.Time
	for i := range entries {
		if entries[i].UpdatedAt.After(t) {
			t = entries[i].UpdatedAt
		}
	}
	return t
}
