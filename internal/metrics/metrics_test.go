// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// TestRecordDBQuery tests store query metric recording
func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("top_by"))

	RecordDBQuery("top_by", 5*time.Millisecond, nil)
	RecordDBQuery("top_by", 5*time.Millisecond, errors.New("connection refused"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("top_by"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/v1/tiles", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/v1/tiles", 200, 12*time.Millisecond)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
}

// TestRecordLeaderboardRebuild tests success and failure paths
func TestRecordLeaderboardRebuild(t *testing.T) {
	RecordLeaderboardRebuild("manual", time.Second, 42, nil)
	if got := testutil.ToFloat64(LeaderboardEntries); got != 42 {
		t.Errorf("LeaderboardEntries = %v, want 42", got)
	}

	errCounter := LeaderboardRebuilds.WithLabelValues("manual", "error")
	before := testutil.ToFloat64(errCounter)
	RecordLeaderboardRebuild("manual", time.Second, 0, errors.New("boom"))
	if got := testutil.ToFloat64(errCounter) - before; got != 1 {
		t.Errorf("error counter delta = %v, want 1", got)
	}
	// A failed rebuild leaves the last entry count in place.
	if got := testutil.ToFloat64(LeaderboardEntries); got != 42 {
		t.Errorf("LeaderboardEntries after failure = %v, want 42", got)
	}
}

// TestTrackActiveRequest verifies the gauge returns to its starting value
func TestTrackActiveRequest(t *testing.T) {
	var m dto.Metric
	if err := APIActiveRequests.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	start := m.GetGauge().GetValue()

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	TrackActiveRequest(false)

	if err := APIActiveRequests.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != start {
		t.Errorf("active requests = %v, want %v", got, start)
	}
}
