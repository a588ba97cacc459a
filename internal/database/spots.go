// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/spotmap/internal/models"
)

var spotColumns = []string{
	"id", "title", "category", "lat", "lng", "start_time", "end_time", "owner_id",
	"likes", "comments_count", "view_count", "premium", "created_at",
	"promotion_id", "promotion_priority",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (*models.Spot, error) {
	var (
		s         models.Spot
		category  string
		promoID   sql.NullString
		promoPrio sql.NullInt64
	)
	if err := row.Scan(
		&s.ID, &s.Title, &category, &s.Lat, &s.Lng, &s.StartTime, &s.EndTime, &s.OwnerID,
		&s.Likes, &s.CommentsCount, &s.ViewCount, &s.Premium, &s.CreatedAt,
		&promoID, &promoPrio,
	); err != nil {
		return nil, err
	}
	s.Category = models.Category(category)
	if promoID.Valid {
		s.Promotion = &models.PromotionRef{ID: promoID.String, Priority: int(promoPrio.Int64)}
	}
	return &s, nil
}

func (db *DB) querySpots(ctx context.Context, query sq.SelectBuilder) ([]*models.Spot, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	var spots []*models.Spot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

// QueryByLatRange returns spots with minLat <= lat <= maxLat, optionally
// restricted to categories, ordered by id and capped at limit. Longitude is
// left to the caller.
func (db *DB) QueryByLatRange(ctx context.Context, minLat, maxLat float64, categories []models.Category, limit int) (spots []*models.Spot, err error) {
	defer observe("query_by_lat_range", &err)()

	query := db.sb.Select(spotColumns...).
		From("spots").
		Where(sq.And{sq.GtOrEq{"lat": minLat}, sq.LtOrEq{"lat": maxLat}}).
		OrderBy("id")

	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, c := range categories {
			cats[i] = string(c)
		}
		query = query.Where(sq.Eq{"category": cats})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	spots, err = db.querySpots(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query spots by latitude: %w", err)
	}
	return spots, nil
}

// GetSpots fetches spots by id. The result is aligned with ids; missing spots
// are nil.
func (db *DB) GetSpots(ctx context.Context, ids []string) (result []*models.Spot, err error) {
	defer observe("get_spots", &err)()

	result = make([]*models.Spot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	found, err := db.querySpots(ctx, db.sb.Select(spotColumns...).From("spots").Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, fmt.Errorf("get spots: %w", err)
	}

	byID := make(map[string]*models.Spot, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	for i, id := range ids {
		result[i] = byID[id]
	}
	return result, nil
}

// TopBy returns the limit spots with the highest value of field. Ties are
// broken by id for a stable order.
func (db *DB) TopBy(ctx context.Context, field models.CounterField, limit int) (spots []*models.Spot, err error) {
	defer observe("top_by_"+string(field), &err)()

	if !field.IsValid() {
		return nil, fmt.Errorf("unknown counter field %q", field)
	}
	if limit <= 0 {
		return nil, nil
	}

	query := db.sb.Select(spotColumns...).
		From("spots").
		OrderBy(string(field)+" DESC", "id").
		Limit(uint64(limit))

	spots, err = db.querySpots(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("top spots by %s: %w", field, err)
	}
	return spots, nil
}

// IncrementCounter atomically adds delta to one engagement counter. It
// returns ErrNotFound when the spot does not exist.
func (db *DB) IncrementCounter(ctx context.Context, spotID string, field models.CounterField, delta int64) (err error) {
	defer observe("increment_counter", &err)()

	if !field.IsValid() {
		return fmt.Errorf("unknown counter field %q", field)
	}

	sqlStr, args, err := db.sb.Update("spots").
		Set(string(field), sq.Expr(string(field)+" + ?", delta)).
		Where(sq.Eq{"id": spotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return db.withConflictRetry(ctx, "increment_counter", func() error {
		res, err := db.conn.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("increment %s for %s: %w", field, spotID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment %s for %s: %w", field, spotID, err)
		}
		if n == 0 {
			return fmt.Errorf("spot %s: %w", spotID, ErrNotFound)
		}
		return nil
	})
}

// UpsertSpot inserts or fully replaces a spot.
func (db *DB) UpsertSpot(ctx context.Context, s *models.Spot) (err error) {
	defer observe("upsert_spot", &err)()

	var promoID, promoPrio any
	if s.Promotion != nil {
		promoID, promoPrio = s.Promotion.ID, s.Promotion.Priority
	}

	sqlStr, args, err := db.sb.Insert("spots").
		Options("OR REPLACE").
		Columns(spotColumns...).
		Values(
			s.ID, s.Title, string(s.Category), s.Lat, s.Lng, s.StartTime.UTC(), s.EndTime.UTC(), s.OwnerID,
			s.Likes, s.CommentsCount, s.ViewCount, s.Premium, s.CreatedAt.UTC(),
			promoID, promoPrio,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	return db.withConflictRetry(ctx, "upsert_spot", func() error {
		if _, err := db.conn.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("upsert spot %s: %w", s.ID, err)
		}
		return nil
	})
}

// CountSpots returns the number of stored spots.
func (db *DB) CountSpots(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM spots").Scan(&n); err != nil {
		return 0, fmt.Errorf("count spots: %w", err)
	}
	return n, nil
}
