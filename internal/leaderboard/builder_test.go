// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/spotmap/internal/models"
)

var testNow = time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)

type fakeSpots struct {
	mu      sync.Mutex
	spots   map[string]*models.Spot
	topErr  error
	topCall atomic.Int32
}

func newFakeSpots(spots ...*models.Spot) *fakeSpots {
	f := &fakeSpots{spots: map[string]*models.Spot{}}
	for _, s := range spots {
		f.spots[s.ID] = s
	}
	return f
}

func counter(s *models.Spot, field models.CounterField) int64 {
	switch field {
	case models.CounterLikes:
		return s.Likes
	case models.CounterComments:
		return s.CommentsCount
	default:
		return s.ViewCount
	}
}

func (f *fakeSpots) TopBy(_ context.Context, field models.CounterField, limit int) ([]*models.Spot, error) {
	f.topCall.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topErr != nil {
		return nil, f.topErr
	}
	all := make([]*models.Spot, 0, len(f.spots))
	for _, s := range f.spots {
		cp := *s
		all = append(all, &cp)
	}
	slices.SortFunc(all, func(a, b *models.Spot) int {
		if c := cmp.Compare(counter(b, field), counter(a, field)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeSpots) GetSpots(_ context.Context, ids []string) ([]*models.Spot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Spot, len(ids))
	for i, id := range ids {
		if s, ok := f.spots[id]; ok {
			cp := *s
			out[i] = &cp
		}
	}
	return out, nil
}

func (f *fakeSpots) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.spots, id)
}

type memSnapshot struct {
	mu         sync.Mutex
	entries    []models.LeaderboardEntry
	replaceErr error
	replaces   int
}

func (m *memSnapshot) ReadLeaderboard(context.Context) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.entries)
	slices.SortStableFunc(out, func(a, b models.LeaderboardEntry) int {
		if c := cmp.Compare(b.PopularityScore, a.PopularityScore); c != 0 {
			return c
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (m *memSnapshot) ReplaceLeaderboard(_ context.Context, entries []models.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaces++
	m.entries = slices.Clone(entries)
	return nil
}

type fakeOwners struct {
	owners map[string]models.OwnerMetrics
	calls  atomic.Int32
}

func (f *fakeOwners) Lookup(_ context.Context, ids []string) map[string]models.OwnerMetrics {
	f.calls.Add(1)
	out := map[string]models.OwnerMetrics{}
	for _, id := range ids {
		if m, ok := f.owners[id]; ok {
			out[id] = m
		}
	}
	return out
}

func spot(id string, likes, comments, views int64) *models.Spot {
	return &models.Spot{
		ID:            id,
		Title:         id,
		Category:      models.CategoryMusic,
		StartTime:     testNow.Add(-time.Hour),
		EndTime:       testNow.Add(time.Hour),
		OwnerID:       "owner-" + id,
		Likes:         likes,
		CommentsCount: comments,
		ViewCount:     views,
		CreatedAt:     testNow.Add(-48 * time.Hour),
	}
}

func newTestBuilder(spots *fakeSpots, snap *memSnapshot, owners *fakeOwners) *Builder {
	var lookup OwnerLookup
	if owners != nil {
		lookup = owners
	}
	b := NewBuilder(spots, snap, lookup, Config{MaxEntries: 10, StaleAfter: 10 * time.Minute})
	b.SetClock(func() time.Time { return testNow })
	return b
}

func entryIDs(entries []models.LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.SpotID
	}
	return ids
}

func TestClampEntries(t *testing.T) {
	assert.Equal(t, 5, ClampEntries(0))
	assert.Equal(t, 5, ClampEntries(-3))
	assert.Equal(t, 42, ClampEntries(42))
	assert.Equal(t, 200, ClampEntries(1000))
}

func TestRebuild_RanksByScore(t *testing.T) {
	spots := newFakeSpots(
		spot("quiet", 1, 0, 2),
		spot("liked", 100, 3, 10),
		spot("chatty", 5, 80, 5),
		spot("viewed", 2, 1, 500),
	)
	snap := &memSnapshot{}
	b := newTestBuilder(spots, snap, &fakeOwners{})

	entries, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, entries, 4)
	assert.Equal(t, []string{"viewed", "liked", "chatty", "quiet"}, entryIDs(entries))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.True(t, e.UpdatedAt.Equal(testNow))
		if i > 0 {
			assert.GreaterOrEqual(t, entries[i-1].PopularityScore, e.PopularityScore)
		}
	}
	assert.Equal(t, int64(100), entries[1].Likes)
	assert.Equal(t, entries, snap.entries)
}

func TestRebuild_UnionAcrossLists(t *testing.T) {
	// With 5 entries each query returns the top 10; a spot that only ranks
	// by views must still be considered.
	var all []*models.Spot
	for i := range 12 {
		all = append(all, spot(fmt.Sprintf("likes-%02d", i), int64(50+i), 0, 0))
	}
	all = append(all, spot("views-only", 0, 0, 100000))
	spots := newFakeSpots(all...)
	b := newTestBuilder(spots, &memSnapshot{}, nil)

	entries, err := b.Rebuild(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, entries, 5)
	assert.Equal(t, "views-only", entries[0].SpotID)
	assert.Equal(t, int32(3), spots.topCall.Load())
	ids := entryIDs(entries)
	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(ids))), 5, "no duplicates")
}

func TestRebuild_TieBreaks(t *testing.T) {
	// Equal scores are ordered by likes, then comments, then createdAt.
	// Far-future spots have a multiplier of exactly 1.
	a := spot("a", 10, 0, 0) // 30
	b := spot("b", 4, 0, 0)  // 12 + 18 top tier boost
	c := spot("c", 10, 0, 0) // 30, created later
	c.CreatedAt = a.CreatedAt.Add(time.Hour)
	for _, s := range []*models.Spot{a, b, c} {
		s.StartTime = testNow.Add(48 * time.Hour)
		s.EndTime = testNow.Add(50 * time.Hour)
	}
	spots := newFakeSpots(a, b, c)
	owners := &fakeOwners{owners: map[string]models.OwnerMetrics{"owner-b": {Tier: models.TierTop}}}
	builder := newTestBuilder(spots, &memSnapshot{}, owners)

	entries, err := builder.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, entryIDs(entries))
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestRebuild_OwnerBoosts(t *testing.T) {
	plain := spot("plain", 10, 0, 0)
	boosted := spot("boosted", 10, 0, 0)
	spots := newFakeSpots(plain, boosted)
	owners := &fakeOwners{owners: map[string]models.OwnerMetrics{
		"owner-boosted": {Tier: models.TierTop, IsSponsor: true},
	}}
	b := newTestBuilder(spots, &memSnapshot{}, owners)

	entries, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "boosted", entries[0].SpotID)
	assert.InDelta(t, 30.0, entries[0].PopularityScore-entries[1].PopularityScore, 1e-9)
	assert.Equal(t, int32(1), owners.calls.Load(), "owners fetched in one lookup")
}

func TestRebuild_Idempotent(t *testing.T) {
	spots := newFakeSpots(spot("a", 3, 1, 1), spot("b", 9, 0, 0), spot("c", 1, 1, 40))
	snap := &memSnapshot{}
	b := newTestBuilder(spots, snap, nil)

	first, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)
	second, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, snap.entries, 3)
}

func TestRebuild_Truncates(t *testing.T) {
	var all []*models.Spot
	for i := range 30 {
		all = append(all, spot(fmt.Sprintf("s%02d", i), int64(i), 0, 0))
	}
	b := newTestBuilder(newFakeSpots(all...), &memSnapshot{}, nil)

	entries, err := b.Rebuild(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, entries, 7)
	assert.Equal(t, "s29", entries[0].SpotID)
	assert.Equal(t, 7, entries[6].Rank)
}

func TestRebuild_QueryErrorKeepsSnapshot(t *testing.T) {
	spots := newFakeSpots(spot("a", 1, 0, 0))
	snap := &memSnapshot{}
	b := newTestBuilder(spots, snap, nil)
	_, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	spots.mu.Lock()
	spots.topErr = errors.New("store down")
	spots.mu.Unlock()

	_, err = b.Rebuild(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, spots.topErr)
	assert.Equal(t, []string{"a"}, entryIDs(snap.entries))
	assert.Equal(t, 1, snap.replaces)
}

func TestRebuild_PersistError(t *testing.T) {
	snap := &memSnapshot{replaceErr: errors.New("disk full")}
	b := newTestBuilder(newFakeSpots(spot("a", 1, 0, 0)), snap, nil)

	_, err := b.Rebuild(context.Background(), 10)
	assert.ErrorIs(t, err, snap.replaceErr)
}

func TestRebuild_NoStore(t *testing.T) {
	b := NewBuilder(nil, nil, nil, Config{})

	_, err := b.Rebuild(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = b.FetchPopular(context.Background(), 10, "")
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestRebuild_NotifiesListener(t *testing.T) {
	b := newTestBuilder(newFakeSpots(spot("a", 1, 0, 0)), &memSnapshot{}, nil)
	var got []models.LeaderboardEntry
	b.OnRebuilt(func(entries []models.LeaderboardEntry) { got = entries })

	_, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, entryIDs(got))
}

func TestFetchPopular_RebuildsWhenEmpty(t *testing.T) {
	spots := newFakeSpots(spot("a", 5, 0, 0), spot("b", 1, 0, 0))
	snap := &memSnapshot{}
	b := newTestBuilder(spots, snap, nil)

	popular, err := b.FetchPopular(context.Background(), 10, "")
	require.NoError(t, err)

	require.Len(t, popular, 2)
	assert.Equal(t, "a", popular[0].Spot.ID)
	assert.Equal(t, 1, popular[0].Entry.Rank)
	assert.Equal(t, 1, snap.replaces)
}

func TestFetchPopular_FreshSnapshotNotRebuilt(t *testing.T) {
	spots := newFakeSpots(spot("a", 5, 0, 0))
	snap := &memSnapshot{entries: []models.LeaderboardEntry{
		{SpotID: "a", PopularityScore: 15, Rank: 1, UpdatedAt: testNow.Add(-9 * time.Minute)},
	}}
	b := newTestBuilder(spots, snap, nil)

	popular, err := b.FetchPopular(context.Background(), 10, "viewer")
	require.NoError(t, err)

	require.Len(t, popular, 1)
	assert.Zero(t, snap.replaces)
	assert.Zero(t, spots.topCall.Load())
}

func TestFetchPopular_RebuildsWhenStale(t *testing.T) {
	spots := newFakeSpots(spot("a", 5, 0, 0), spot("new", 50, 0, 0))
	snap := &memSnapshot{entries: []models.LeaderboardEntry{
		{SpotID: "a", PopularityScore: 15, Rank: 1, UpdatedAt: testNow.Add(-11 * time.Minute)},
	}}
	b := newTestBuilder(spots, snap, nil)

	popular, err := b.FetchPopular(context.Background(), 10, "")
	require.NoError(t, err)

	assert.Equal(t, 1, snap.replaces)
	require.Len(t, popular, 2)
	assert.Equal(t, "new", popular[0].Spot.ID)
}

func TestFetchPopular_SkipsDeletedSpots(t *testing.T) {
	spots := newFakeSpots(spot("a", 5, 0, 0), spot("gone", 9, 0, 0), spot("c", 1, 0, 0))
	b := newTestBuilder(spots, &memSnapshot{}, nil)
	_, err := b.Rebuild(context.Background(), 10)
	require.NoError(t, err)

	spots.delete("gone")

	popular, err := b.FetchPopular(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "a", popular[0].Spot.ID)
	assert.Equal(t, "c", popular[1].Spot.ID)
}

func TestFetchPopular_Limit(t *testing.T) {
	var all []*models.Spot
	for i := range 8 {
		all = append(all, spot(fmt.Sprintf("s%d", i), int64(i+1), 0, 0))
	}
	b := newTestBuilder(newFakeSpots(all...), &memSnapshot{}, nil)

	popular, err := b.FetchPopular(context.Background(), 3, "")
	require.NoError(t, err)
	require.Len(t, popular, 3)
	assert.Equal(t, "s7", popular[0].Spot.ID)
}

func TestFetchPopular_ConcurrentEmptyReads(t *testing.T) {
	spots := newFakeSpots(spot("a", 5, 0, 0))
	snap := &memSnapshot{}
	b := newTestBuilder(spots, snap, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			popular, err := b.FetchPopular(context.Background(), 10, "")
			assert.NoError(t, err)
			assert.Len(t, popular, 1)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, snap.replaces, 1)
	assert.LessOrEqual(t, snap.replaces, 8)
}

func TestRebuild_ZeroUsesConfiguredSize(t *testing.T) {
	var all []*models.Spot
	for i := range 30 {
		all = append(all, spot(fmt.Sprintf("s%02d", i), int64(i), 0, 0))
	}
	b := newTestBuilder(newFakeSpots(all...), &memSnapshot{}, nil)

	entries, err := b.RebuildWithTrigger(context.Background(), 0, TriggerManual)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

// gatedSpots holds every TopBy call until release is closed.
type gatedSpots struct {
	*fakeSpots
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSpots) TopBy(ctx context.Context, field models.CounterField, limit int) ([]*models.Spot, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.fakeSpots.TopBy(ctx, field, limit)
}

func TestRebuild_CancelledCallerDoesNotAbortShared(t *testing.T) {
	spots := &gatedSpots{
		fakeSpots: newFakeSpots(spot("a", 5, 0, 0), spot("b", 3, 0, 0)),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	b := NewBuilder(spots, &memSnapshot{}, nil, Config{MaxEntries: 10})
	b.SetClock(func() time.Time { return testNow })

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := b.Rebuild(leaderCtx, 10)
		leaderErr <- err
	}()
	<-spots.entered

	type result struct {
		entries []models.LeaderboardEntry
		err     error
	}
	follower := make(chan result, 1)
	go func() {
		entries, err := b.Rebuild(context.Background(), 10)
		follower <- result{entries, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(spots.release)
	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, []string{"a", "b"}, entryIDs(got.entries))
}
