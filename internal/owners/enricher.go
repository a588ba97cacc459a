// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package owners resolves owner metadata (tier, followers, sponsor and phone
// verification flags) for sets of owner ids.
//
// Lookups are best effort. A failing or slow owner store never fails the
// caller: unresolved owners are simply absent from the result, which readers
// treat as the zero OwnerMetrics (no boost, not verified).
package owners

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
)

// Source is the owner store. database.DB implements it.
type Source interface {
	GetOwnerMetrics(ctx context.Context, ids []string) (map[string]models.OwnerMetrics, error)
}

// Options tunes the enricher.
type Options struct {
	// BatchSize is the largest id set sent to Source in one call. The
	// default matches the tile result cap, so one tile's owners are always
	// fetched in a single call.
	BatchSize int
	// CacheTTL bounds how stale cached metadata may be. Zero disables caching.
	CacheTTL        time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		BatchSize:       2000,
		CacheTTL:        30 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Enricher batches, caches and circuit-breaks owner lookups.
type Enricher struct {
	src       Source
	batchSize int
	cache     *gocache.Cache
	cb        *ownerBreaker
}

// NewEnricher wraps src.
func NewEnricher(src Source, opts Options) *Enricher {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = def.BreakerTimeout
	}

	e := &Enricher{
		src:       src,
		batchSize: opts.BatchSize,
		cb:        newBreaker(opts.BreakerFailures, opts.BreakerTimeout),
	}
	if opts.CacheTTL > 0 {
		e.cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return e
}

// Lookup returns metadata for ids. Duplicate and empty ids are ignored.
// Ids are fetched in chunks of at most BatchSize, so a set that fits in one
// chunk costs exactly one Source call. Owners that could not be resolved are
// absent from the map.
func (e *Enricher) Lookup(ctx context.Context, ids []string) map[string]models.OwnerMetrics {
	out := make(map[string]models.OwnerMetrics, len(ids))
	seen := make(map[string]struct{}, len(ids))
	misses := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if e.cache != nil {
			if v, ok := e.cache.Get(id); ok {
				out[id] = v.(models.OwnerMetrics)
				continue
			}
		}
		misses = append(misses, id)
	}

	if hits := len(seen) - len(misses); hits > 0 {
		metrics.OwnerLookups.WithLabelValues("cached").Add(float64(hits))
	}

	for start := 0; start < len(misses); start += e.batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+e.batchSize, len(misses))
		e.fetchChunk(ctx, misses[start:end], out)
	}
	return out
}

func (e *Enricher) fetchChunk(ctx context.Context, chunk []string, out map[string]models.OwnerMetrics) {
	found, err := e.cb.Execute(func() (map[string]models.OwnerMetrics, error) {
		return e.src.GetOwnerMetrics(ctx, chunk)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.OwnerLookups.WithLabelValues(result).Inc()
		logging.Ctx(ctx).Warn().Err(err).Int("owners", len(chunk)).Str("result", result).
			Msg("Owner lookup failed, using defaults")
		return
	}

	metrics.OwnerLookups.WithLabelValues("success").Inc()
	for _, id := range chunk {
		m, ok := found[id]
		if ok {
			out[id] = m
		}
		if e.cache != nil {
			// Unknown owners are cached as the zero value too.
			e.cache.SetDefault(id, m)
		}
	}
}

// BreakerState reports the circuit state ("closed", "half-open", "open").
func (e *Enricher) BreakerState() string {
	return stateToString(e.cb.State())
}
