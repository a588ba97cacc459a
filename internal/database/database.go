// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package database is the DuckDB-backed spot store. It holds spots with
// their engagement counters, owner metadata and the leaderboard snapshot.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/spotmap/internal/config"
	"github.com/tomtom215/spotmap/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
	sb   sq.StatementBuilderType

	maxConflictRetries int
	conflictDelay      time.Duration
}

// New opens (or creates) the database at cfg.Path and ensures the schema.
// Use ":memory:" for an ephemeral store.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:               conn,
		cfg:                cfg,
		sb:                 sq.StatementBuilder.PlaceholderFormat(sq.Question),
		maxConflictRetries: 20,
		conflictDelay:      5 * time.Millisecond,
	}

	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.SeedDemoData(ctx, time.Now()); err != nil {
			logging.Warn().Err(err).Msg("Failed to seed demo data")
		}
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Spot store ready")
	return db, nil
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close checkpoints the WAL and closes the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.cfg.Path != ":memory:" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates spots, owners and leaderboard if they are missing.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// The leaderboard table has no primary key: a rebuild deletes every row and
// inserts the new set inside one transaction, and DuckDB rejects delete then
// reinsert of the same key in a single transaction on indexed tables.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS spots (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		lat DOUBLE NOT NULL,
		lng DOUBLE NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		owner_id TEXT NOT NULL,
		likes BIGINT NOT NULL DEFAULT 0,
		comments_count BIGINT NOT NULL DEFAULT 0,
		view_count BIGINT NOT NULL DEFAULT 0,
		premium BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL,
		promotion_id TEXT,
		promotion_priority INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS owners (
		id TEXT PRIMARY KEY,
		tier TEXT NOT NULL DEFAULT 'base',
		followers_count BIGINT NOT NULL DEFAULT 0,
		is_sponsor BOOLEAN NOT NULL DEFAULT false,
		phone_verified BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS leaderboard (
		spot_id TEXT NOT NULL,
		popularity_score DOUBLE NOT NULL,
		likes BIGINT NOT NULL,
		comments_count BIGINT NOT NULL,
		view_count BIGINT NOT NULL,
		leaderboard_rank INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}
