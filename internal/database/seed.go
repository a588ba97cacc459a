// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/models"
)

// SeedDemoData inserts a small set of owners and spots around central Lisbon
// for local development. It does nothing when spots already exist.
func (db *DB) SeedDemoData(ctx context.Context, now time.Time) error {
	n, err := db.CountSpots(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	owners := map[string]models.OwnerMetrics{
		"owner-venue":   {Tier: models.TierTop, FollowersCount: 12000, IsSponsor: true, PhoneVerified: true},
		"owner-cafe":    {Tier: models.TierMid, FollowersCount: 850, PhoneVerified: true},
		"owner-citizen": {Tier: models.TierBase, FollowersCount: 40},
	}
	for id, m := range owners {
		if err := db.UpsertOwner(ctx, id, m); err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}
	}

	now = now.UTC().Truncate(time.Second)
	spots := []*models.Spot{
		{
			ID: "demo-rooftop-gig", Title: "Rooftop gig", Category: models.CategoryMusic,
			Lat: 38.7139, Lng: -9.1394, OwnerID: "owner-venue",
			StartTime: now.Add(-30 * time.Minute), EndTime: now.Add(2 * time.Hour),
			Likes: 240, CommentsCount: 31, ViewCount: 1900, Premium: true,
			Promotion: &models.PromotionRef{ID: "promo-summer", Priority: 2},
		},
		{
			ID: "demo-pastel-tasting", Title: "Pastel de nata tasting", Category: models.CategoryFood,
			Lat: 38.6975, Lng: -9.2063, OwnerID: "owner-cafe",
			StartTime: now.Add(90 * time.Minute), EndTime: now.Add(4 * time.Hour),
			Likes: 55, CommentsCount: 8, ViewCount: 420,
		},
		{
			ID: "demo-street-market", Title: "Feira da Ladra", Category: models.CategoryMarket,
			Lat: 38.7149, Lng: -9.1270, OwnerID: "owner-citizen",
			StartTime: now.Add(-26 * time.Hour), EndTime: now.Add(-20 * time.Hour),
			Likes: 12, CommentsCount: 2, ViewCount: 150,
		},
		{
			ID: "demo-city-run", Title: "Riverside 10k", Category: models.CategoryEvent,
			Lat: 38.7071, Lng: -9.1355, OwnerID: "owner-venue",
			StartTime: now.Add(20 * time.Hour), EndTime: now.Add(23 * time.Hour),
			Likes: 88, CommentsCount: 14, ViewCount: 760,
		},
	}
	for _, s := range spots {
		s.CreatedAt = now.Add(-48 * time.Hour)
		if err := db.UpsertSpot(ctx, s); err != nil {
			return fmt.Errorf("seed spot: %w", err)
		}
	}

	logging.Info().Int("spots", len(spots)).Int("owners", len(owners)).Msg("Seeded demo data")
	return nil
}
