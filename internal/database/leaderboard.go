// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/spotmap/internal/models"
)

// ReadLeaderboard returns the current snapshot ordered by score descending,
// then by update time descending.
func (db *DB) ReadLeaderboard(ctx context.Context) (entries []models.LeaderboardEntry, err error) {
	defer observe("read_leaderboard", &err)()

	sqlStr, args, err := db.sb.
		Select("spot_id", "popularity_score", "likes", "comments_count", "view_count", "leaderboard_rank", "updated_at").
		From("leaderboard").
		OrderBy("popularity_score DESC", "updated_at DESC", "leaderboard_rank").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.SpotID, &e.PopularityScore, &e.Likes, &e.CommentsCount, &e.ViewCount, &e.Rank, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

// ReplaceLeaderboard swaps the whole snapshot for entries in one
// transaction. On error the previous snapshot is left untouched.
func (db *DB) ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) (err error) {
	defer observe("replace_leaderboard", &err)()

	return db.withConflictRetry(ctx, "replace_leaderboard", func() error {
		return db.replaceLeaderboardTx(ctx, entries)
	})
}

func (db *DB) replaceLeaderboardTx(ctx context.Context, entries []models.LeaderboardEntry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leaderboard transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM leaderboard"); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}

	if len(entries) > 0 {
		insert := db.sb.Insert("leaderboard").
			Columns("spot_id", "popularity_score", "likes", "comments_count", "view_count", "leaderboard_rank", "updated_at")
		for i := range entries {
			e := &entries[i]
			insert = insert.Values(e.SpotID, e.PopularityScore, e.Likes, e.CommentsCount, e.ViewCount, e.Rank, e.UpdatedAt.UTC())
		}
		sqlStr, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build leaderboard insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert leaderboard: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit leaderboard: %w", err)
	}
	committed = true
	return nil
}
