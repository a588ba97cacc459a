// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package models

import "time"

// Layer is the rendering layer the map client uses for a tile.
type Layer string

const (
	LayerCluster Layer = "cluster"
	LayerPulse   Layer = "pulse"
	LayerBalloon Layer = "balloon"
)

// IsValid reports whether l is a known layer.
func (l Layer) IsValid() bool {
	switch l {
	case LayerCluster, LayerPulse, LayerBalloon:
		return true
	}
	return false
}

// Status is the lifecycle state of a spot relative to its schedule.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

// FeatureKind discriminates the payload carried by a MapTileFeature.
type FeatureKind string

const (
	FeatureKindCluster FeatureKind = "cluster"
	FeatureKindPoint   FeatureKind = "point"
)

// Geometry is a WGS84 coordinate.
type Geometry struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SpotSummary is the spot detail embedded in a point feature.
type SpotSummary struct {
	Title              string        `json:"title"`
	Category           Category      `json:"category"`
	StartTime          int64         `json:"startTime"`
	EndTime            int64         `json:"endTime"`
	OwnerID            string        `json:"ownerId"`
	OwnerPhoneVerified bool          `json:"ownerPhoneVerified"`
	Likes              int64         `json:"likes"`
	CommentsCount      int64         `json:"commentsCount"`
	Promotion          *PromotionRef `json:"promotion"`
}

// ClusterPayload is set when Kind is FeatureKindCluster.
type ClusterPayload struct {
	ClusterID             int64  `json:"clusterId"`
	PointCount            int    `json:"pointCount"`
	PointCountAbbreviated string `json:"pointCountAbbreviated"`
}

// PointPayload is set when Kind is FeatureKindPoint.
type PointPayload struct {
	Status Status      `json:"status"`
	Spot   SpotSummary `json:"spot"`
}

// MapTileFeature is one marker in a tile response. Exactly one of Cluster
// or Point is non-nil, matching Kind.
type MapTileFeature struct {
	ID         string          `json:"id"`
	Kind       FeatureKind     `json:"kind"`
	Type       Layer           `json:"type"`
	Geometry   Geometry        `json:"geometry"`
	Popularity int64           `json:"popularity"`
	Premium    bool            `json:"premium"`
	Cluster    *ClusterPayload `json:"cluster,omitempty"`
	Point      *PointPayload   `json:"point,omitempty"`
}

// IsCluster reports whether the feature aggregates several spots.
func (f *MapTileFeature) IsCluster() bool {
	return f.Kind == FeatureKindCluster
}

// TileResponse is the body served for a tile request and the value held by
// the tile cache. Times are Unix milliseconds.
type TileResponse struct {
	Z           int              `json:"z"`
	X           int              `json:"x"`
	Y           int              `json:"y"`
	GeneratedAt int64            `json:"generatedAt"`
	NextSyncAt  int64            `json:"nextSyncAt"`
	DOMBudget   int              `json:"domBudget"`
	Features    []MapTileFeature `json:"features"`
}

// GeneratedTime returns GeneratedAt as a time.Time.
func (t *TileResponse) GeneratedTime() time.Time {
	return time.UnixMilli(t.GeneratedAt)
}
