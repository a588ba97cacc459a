// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package snapshot persists the leaderboard snapshot in BadgerDB. It is an
// alternative to the DuckDB leaderboard table for deployments that want the
// ranked snapshot on a separate embedded store (leaderboard.store=badger).
package snapshot

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/models"
)

// Key layout: entryKeyPrefix + spot id.
const entryKeyPrefix = "leaderboard:entry:"

// BadgerStore implements the leaderboard snapshot interface on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// Open opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory store.
func Open(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("dir", dir).Msg("Leaderboard snapshot store opened")
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore wraps an already opened database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func entryKey(spotID string) []byte {
	return []byte(entryKeyPrefix + spotID)
}

// ReadLeaderboard returns the snapshot ordered by score descending, then by
// update time descending.
func (s *BadgerStore) ReadLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e models.LeaderboardEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode entry %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PopularityScore != entries[j].PopularityScore {
			return entries[i].PopularityScore > entries[j].PopularityScore
		}
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		}
		return entries[i].Rank < entries[j].Rank
	})
	return entries, nil
}

// ReplaceLeaderboard deletes every stored entry and writes entries in one
// transaction. On error nothing is committed.
func (s *BadgerStore) ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(entryKeyPrefix)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}

		for i := range entries {
			data, err := json.Marshal(&entries[i])
			if err != nil {
				return fmt.Errorf("marshal entry %s: %w", entries[i].SpotID, err)
			}
			if err := txn.Set(entryKey(entries[i].SpotID), data); err != nil {
				return fmt.Errorf("set entry %s: %w", entries[i].SpotID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}
