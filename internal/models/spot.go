// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package models defines the shared domain types for spots, owners,
// leaderboard snapshots and map tile responses.
package models

import "time"

// Category classifies a spot. The set is closed and validated at the HTTP boundary.
type Category string

const (
	CategoryEvent     Category = "event"
	CategoryFood      Category = "food"
	CategoryMusic     Category = "music"
	CategorySports    Category = "sports"
	CategoryArt       Category = "art"
	CategoryMarket    Category = "market"
	CategoryNightlife Category = "nightlife"
	CategoryCommunity Category = "community"
	CategoryOutdoors  Category = "outdoors"
	CategoryOther     Category = "other"
)

// Categories lists every valid category in declaration order.
var Categories = []Category{
	CategoryEvent, CategoryFood, CategoryMusic, CategorySports, CategoryArt,
	CategoryMarket, CategoryNightlife, CategoryCommunity, CategoryOutdoors, CategoryOther,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PromotionRef points at an active promotion for a spot.
type PromotionRef struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

// Spot is a geotagged post owned by a user.
//
// Likes, CommentsCount and ViewCount are eventually consistent counters
// maintained by atomic increments elsewhere. Readers must treat negative
// values as zero; use the Safe* accessors.
type Spot struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Category      Category      `json:"category"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	OwnerID       string        `json:"ownerId"`
	Likes         int64         `json:"likes"`
	CommentsCount int64         `json:"commentsCount"`
	ViewCount     int64         `json:"viewCount"`
	Premium       bool          `json:"premium"`
	CreatedAt     time.Time     `json:"createdAt"`
	Promotion     *PromotionRef `json:"promotion"`
}

// SafeLikes returns the like counter clamped at zero.
func (s *Spot) SafeLikes() int64 { return nonNegative(s.Likes) }

// SafeComments returns the comment counter clamped at zero.
func (s *Spot) SafeComments() int64 { return nonNegative(s.CommentsCount) }

// SafeViews returns the view counter clamped at zero.
func (s *Spot) SafeViews() int64 { return nonNegative(s.ViewCount) }

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Tier is an owner's monetization level. Higher tiers receive a larger
// popularity boost.
type Tier string

const (
	TierTop  Tier = "top"
	TierMid  Tier = "mid"
	TierBase Tier = "base"
)

// OwnerMetrics is the read-only owner view the core consumes.
// The zero value means "no boost" and "not verified".
type OwnerMetrics struct {
	Tier           Tier  `json:"tier"`
	FollowersCount int64 `json:"followersCount"`
	IsSponsor      bool  `json:"isSponsor"`
	PhoneVerified  bool  `json:"phoneVerified"`
}

// CounterField names one of the engagement counters on a spot.
type CounterField string

const (
	CounterLikes    CounterField = "likes"
	CounterComments CounterField = "comments_count"
	CounterViews    CounterField = "view_count"
)

// IsValid reports whether f is a known counter column.
func (f CounterField) IsValid() bool {
	switch f {
	case CounterLikes, CounterComments, CounterViews:
		return true
	}
	return false
}
