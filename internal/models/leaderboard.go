// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package models

import "time"

// LeaderboardEntry is one ranked row of the persisted popularity snapshot.
// Entries are replaced wholesale on every rebuild.
type LeaderboardEntry struct {
	SpotID          string    `json:"spotId"`
	PopularityScore float64   `json:"popularityScore"`
	Likes           int64     `json:"likes"`
	CommentsCount   int64     `json:"commentsCount"`
	ViewCount       int64     `json:"viewCount"`
	Rank            int       `json:"rank"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PopularSpot joins a leaderboard entry with the current spot record.
type PopularSpot struct {
	Entry LeaderboardEntry `json:"entry"`
	Spot  Spot             `json:"spot"`
}

// EngagementKind is the type of a user interaction with a spot.
type EngagementKind string

const (
	EngagementLike    EngagementKind = "like"
	EngagementUnlike  EngagementKind = "unlike"
	EngagementComment EngagementKind = "comment"
	EngagementView    EngagementKind = "view"
)

// IsValid reports whether k is a known engagement kind.
func (k EngagementKind) IsValid() bool {
	switch k {
	case EngagementLike, EngagementUnlike, EngagementComment, EngagementView:
		return true
	}
	return false
}

// EngagementEvent records an interaction to be applied to spot counters.
type EngagementEvent struct {
	EventID    string         `json:"eventId"`
	SpotID     string         `json:"spotId"`
	Kind       EngagementKind `json:"kind"`
	ViewerID   string         `json:"viewerId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// CounterDelta maps the event to the counter it changes and by how much.
// ok is false for unknown kinds.
func (e *EngagementEvent) CounterDelta() (field CounterField, delta int64, ok bool) {
	switch e.Kind {
	case EngagementLike:
		return CounterLikes, 1, true
	case EngagementUnlike:
		return CounterLikes, -1, true
	case EngagementComment:
		return CounterComments, 1, true
	case EngagementView:
		return CounterViews, 1, true
	}
	return "", 0, false
}
