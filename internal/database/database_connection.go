// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package database

import (
	"context"
	"math/rand/v2"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
)

// configureConnectionPool sizes the pool for CPU-bound DuckDB work.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isTransactionConflict reports whether err is a DuckDB optimistic
// concurrency conflict that is safe to retry.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "Conflict on tuple deletion")
}

// withConflictRetry runs fn and retries it with jittered linear backoff while
// DuckDB reports a write-write conflict.
func (db *DB) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= db.maxConflictRetries; attempt++ {
		if attempt > 0 {
			delay := db.conflictDelay*time.Duration(attempt) + rand.N(db.conflictDelay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); !isTransactionConflict(err) {
			return err
		}
		logging.Debug().Str("operation", op).Int("attempt", attempt+1).Msg("Retrying after transaction conflict")
	}
	return err
}

// observe starts timing a store call; the returned func records duration and
// outcome. Use as: defer observe("op", &err)()
func observe(op string, errp *error) func() {
	start := time.Now()
	return func() {
		metrics.RecordDBQuery(op, time.Since(start), *errp)
	}
}
