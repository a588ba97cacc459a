// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package popularity computes the popularity score that orders the
// leaderboard and the "popular" layer.
//
// Score is pure: given the same spot, owner metrics and reference time it
// always returns the same value. Engagement is scaled by a recency
// multiplier first and the owner/category boosts are added afterwards, so a
// zero-engagement post from a top-tier sponsor outranks an old busy post
// only when the boost sum exceeds the decayed engagement gap.
package popularity

import (
	"math"
	"time"

	"github.com/tomtom215/spotmap/internal/models"
)

// Engagement weights.
const (
	LikeWeight    = 3.0
	ViewWeight    = 1.2
	CommentWeight = 0.8
)

// Recency multipliers.
const (
	LiveMultiplier        = 1.6
	StartsWithin2h        = 1.4
	StartsWithin6h        = 1.25
	StartsWithin24h       = 1.1
	EndedFloor            = 0.45
	endedDecayWindowHours = 24.0
)

// Additive boosts.
const (
	FollowerLogWeight  = 8.0
	TopTierBoost       = 18.0
	MidTierBoost       = 9.0
	SponsorBoost       = 12.0
	EventCategoryBoost = 4.0
)

// Score returns the popularity of spot at now. owner may be nil, in which
// case no owner boost applies.
func Score(spot *models.Spot, owner *models.OwnerMetrics, now time.Time) float64 {
	return Engagement(spot)*RecencyMultiplier(spot, now) + Boosts(spot, owner)
}

// Engagement is the weighted sum of the spot's counters. Negative counters
// count as zero.
func Engagement(spot *models.Spot) float64 {
	return float64(spot.SafeLikes())*LikeWeight +
		float64(spot.SafeViews())*ViewWeight +
		float64(spot.SafeComments())*CommentWeight
}

// RecencyMultiplier favours live spots, then spots starting soon, and decays
// linearly over the 24 hours after a spot ends.
func RecencyMultiplier(spot *models.Spot, now time.Time) float64 {
	switch {
	case now.Before(spot.StartTime):
		untilStart := spot.StartTime.Sub(now)
		switch {
		case untilStart < 2*time.Hour:
			return StartsWithin2h
		case untilStart < 6*time.Hour:
			return StartsWithin6h
		case untilStart < 24*time.Hour:
			return StartsWithin24h
		default:
			return 1.0
		}
	case now.After(spot.EndTime):
		hoursSinceEnd := now.Sub(spot.EndTime).Hours()
		return math.Max(EndedFloor, 1-hoursSinceEnd/endedDecayWindowHours)
	default:
		return LiveMultiplier
	}
}

// Boosts returns the additive owner and category boosts.
func Boosts(spot *models.Spot, owner *models.OwnerMetrics) float64 {
	var boost float64
	if owner != nil {
		followers := owner.FollowersCount
		if followers < 0 {
			followers = 0
		}
		boost += math.Log10(float64(followers)+1) * FollowerLogWeight
		boost += TierBoost(owner.Tier)
		if owner.IsSponsor {
			boost += SponsorBoost
		}
	}
	if spot.Category == models.CategoryEvent {
		boost += EventCategoryBoost
	}
	return boost
}

// TierBoost maps a tier to its boost. Unknown tiers get none.
func TierBoost(tier models.Tier) float64 {
	switch tier {
	case models.TierTop:
		return TopTierBoost
	case models.TierMid:
		return MidTierBoost
	default:
		return 0
	}
}

// Lifecycle reports whether spot is upcoming, live or ended at now.
func Lifecycle(spot *models.Spot, now time.Time) models.Status {
	switch {
	case now.Before(spot.StartTime):
		return models.StatusUpcoming
	case now.After(spot.EndTime):
		return models.StatusEnded
	default:
		return models.StatusLive
	}
}
