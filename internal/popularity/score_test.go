// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package popularity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/spotmap/internal/models"
)

var refNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func spotWindow(start, end time.Time) *models.Spot {
	return &models.Spot{
		ID:            "s1",
		Category:      models.CategoryFood,
		Likes:         10,
		ViewCount:     100,
		CommentsCount: 5,
		StartTime:     start,
		EndTime:       end,
	}
}

func TestScore_Deterministic(t *testing.T) {
	spot := spotWindow(refNow.Add(-time.Hour), refNow.Add(time.Hour))
	owner := &models.OwnerMetrics{Tier: models.TierMid, FollowersCount: 250, IsSponsor: true}

	first := Score(spot, owner, refNow)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(spot, owner, refNow))
	}
}

func TestScore_ExactFormula(t *testing.T) {
	spot := spotWindow(refNow.Add(-time.Hour), refNow.Add(time.Hour))
	spot.Category = models.CategoryEvent
	owner := &models.OwnerMetrics{Tier: models.TierTop, FollowersCount: 999, IsSponsor: true}

	engagement := 10*3.0 + 100*1.2 + 5*0.8
	boosts := math.Log10(1000)*8 + 18 + 12 + 4
	want := engagement*1.6 + boosts

	assert.InDelta(t, want, Score(spot, owner, refNow), 1e-9)
}

func TestScore_NilOwnerGetsNoBoost(t *testing.T) {
	spot := spotWindow(refNow.Add(48*time.Hour), refNow.Add(50*time.Hour))
	assert.InDelta(t, Engagement(spot), Score(spot, nil, refNow), 1e-9)
	assert.InDelta(t, Score(spot, &models.OwnerMetrics{}, refNow), Score(spot, nil, refNow), 1e-9)
}

func TestScore_RecencyMonotonic(t *testing.T) {
	live := spotWindow(refNow.Add(-time.Hour), refNow.Add(time.Hour))
	endedOneHour := spotWindow(refNow.Add(-3*time.Hour), refNow.Add(-time.Hour))
	endedTwentyHours := spotWindow(refNow.Add(-22*time.Hour), refNow.Add(-20*time.Hour))

	liveScore := Score(live, nil, refNow)
	oneHour := Score(endedOneHour, nil, refNow)
	twentyHours := Score(endedTwentyHours, nil, refNow)

	assert.Greater(t, liveScore, oneHour)
	assert.Greater(t, oneHour, twentyHours)
}

func TestRecencyMultiplier(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  float64
	}{
		{"live", refNow.Add(-time.Minute), refNow.Add(time.Minute), 1.6},
		{"starts in 1h", refNow.Add(time.Hour), refNow.Add(3 * time.Hour), 1.4},
		{"starts in 5h", refNow.Add(5 * time.Hour), refNow.Add(7 * time.Hour), 1.25},
		{"starts in 23h", refNow.Add(23 * time.Hour), refNow.Add(25 * time.Hour), 1.1},
		{"starts in 3d", refNow.Add(72 * time.Hour), refNow.Add(74 * time.Hour), 1.0},
		{"ended just now", refNow.Add(-2 * time.Hour), refNow.Add(-time.Nanosecond), 1.0},
		{"ended 12h ago", refNow.Add(-14 * time.Hour), refNow.Add(-12 * time.Hour), 0.5},
		{"ended 20h ago floors", refNow.Add(-22 * time.Hour), refNow.Add(-20 * time.Hour), 0.45},
		{"ended a week ago floors", refNow.Add(-170 * time.Hour), refNow.Add(-168 * time.Hour), 0.45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecencyMultiplier(spotWindow(tt.start, tt.end), refNow)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestEngagement_NegativeCountersClamp(t *testing.T) {
	spot := &models.Spot{Likes: -4, ViewCount: 10, CommentsCount: -1}
	assert.InDelta(t, 12.0, Engagement(spot), 1e-9)
}

func TestTierBoost(t *testing.T) {
	assert.Equal(t, 18.0, TierBoost(models.TierTop))
	assert.Equal(t, 9.0, TierBoost(models.TierMid))
	assert.Equal(t, 0.0, TierBoost(models.TierBase))
	assert.Equal(t, 0.0, TierBoost(""))
}

func TestScore_SponsorOutranksDecayedEngagement(t *testing.T) {
	fresh := spotWindow(refNow.Add(72*time.Hour), refNow.Add(74*time.Hour))
	fresh.Likes, fresh.ViewCount, fresh.CommentsCount = 0, 0, 0
	sponsor := &models.OwnerMetrics{Tier: models.TierTop, IsSponsor: true}

	old := spotWindow(refNow.Add(-50*time.Hour), refNow.Add(-48*time.Hour))
	old.Likes, old.ViewCount, old.CommentsCount = 10, 0, 0

	// 10 likes * 3 * 0.45 = 13.5 decayed engagement < 30 boost
	assert.Greater(t, Score(fresh, sponsor, refNow), Score(old, nil, refNow))

	old.Likes = 40 // 54 decayed engagement > 30 boost
	assert.Less(t, Score(fresh, sponsor, refNow), Score(old, nil, refNow))
}

func TestLifecycle(t *testing.T) {
	assert.Equal(t, models.StatusUpcoming, Lifecycle(spotWindow(refNow.Add(time.Hour), refNow.Add(2*time.Hour)), refNow))
	assert.Equal(t, models.StatusLive, Lifecycle(spotWindow(refNow.Add(-time.Hour), refNow.Add(time.Hour)), refNow))
	assert.Equal(t, models.StatusEnded, Lifecycle(spotWindow(refNow.Add(-2*time.Hour), refNow.Add(-time.Hour)), refNow))
	// Boundaries count as live.
	assert.Equal(t, models.StatusLive, Lifecycle(spotWindow(refNow, refNow), refNow))
}
