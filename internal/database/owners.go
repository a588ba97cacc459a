// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/spotmap/internal/models"
)

// GetOwnerMetrics returns metadata for the given owner ids. Unknown owners
// are absent from the map. Callers are expected to chunk large id sets.
func (db *DB) GetOwnerMetrics(ctx context.Context, ids []string) (out map[string]models.OwnerMetrics, err error) {
	defer observe("get_owner_metrics", &err)()

	out = make(map[string]models.OwnerMetrics, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sqlStr, args, err := db.sb.
		Select("id", "tier", "followers_count", "is_sponsor", "phone_verified").
		From("owners").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owner query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			id   string
			tier string
			m    models.OwnerMetrics
		)
		if err := rows.Scan(&id, &tier, &m.FollowersCount, &m.IsSponsor, &m.PhoneVerified); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		m.Tier = models.Tier(tier)
		out[id] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return out, nil
}

// UpsertOwner inserts or replaces an owner's metadata.
func (db *DB) UpsertOwner(ctx context.Context, id string, m models.OwnerMetrics) (err error) {
	defer observe("upsert_owner", &err)()

	tier := m.Tier
	if tier == "" {
		tier = models.TierBase
	}

	sqlStr, args, err := db.sb.Insert("owners").
		Options("OR REPLACE").
		Columns("id", "tier", "followers_count", "is_sponsor", "phone_verified").
		Values(id, string(tier), m.FollowersCount, m.IsSponsor, m.PhoneVerified).
		ToSql()
	if err != nil {
		return fmt.Errorf("build owner insert: %w", err)
	}

	return db.withConflictRetry(ctx, "upsert_owner", func() error {
		if _, err := db.conn.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("upsert owner %s: %w", id, err)
		}
		return nil
	})
}
