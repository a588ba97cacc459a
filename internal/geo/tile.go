// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package geo implements slippy-map tile arithmetic in the Web Mercator
// projection (EPSG:3857).
package geo

import (
	"fmt"
	"math"
)

// Zoom limits accepted by the tile service.
const (
	MinZoom = 5
	MaxZoom = 20

	// TileSize is the pixel width of one tile.
	TileSize = 256
)

// TileKey identifies a normalized tile.
type TileKey struct {
	Z, X, Y int
}

// String renders the key as "z/x/y".
func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Z, k.X, k.Y)
}

// NormalizeTile floors the coordinates, clamps z to [MinZoom, MaxZoom] and
// clamps x and y to be non-negative. x and y are not checked against 2^z;
// out-of-range tiles simply contain nothing.
func NormalizeTile(z, x, y float64) TileKey {
	zz := int(math.Floor(z))
	if zz < MinZoom {
		zz = MinZoom
	}
	if zz > MaxZoom {
		zz = MaxZoom
	}
	return TileKey{
		Z: zz,
		X: clampNonNegative(x),
		Y: clampNonNegative(y),
	}
}

func clampNonNegative(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

// ContainsLng reports whether lng lies in [MinLng, MaxLng].
func (b Bounds) ContainsLng(lng float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && b.ContainsLng(lng)
}

// TileBounds returns the bounding box of tile k.
func TileBounds(k TileKey) Bounds {
	n := math.Exp2(float64(k.Z))

	minLng := float64(k.X)/n*360.0 - 180.0
	maxLng := float64(k.X+1)/n*360.0 - 180.0

	minLatRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(k.Y+1)/n)))
	maxLatRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(k.Y)/n)))

	return Bounds{
		MinLng: minLng,
		MinLat: minLatRad * 180.0 / math.Pi,
		MaxLng: maxLng,
		MaxLat: maxLatRad * 180.0 / math.Pi,
	}
}

// maxMercatorLat is the latitude at which Web Mercator y reaches the world edge.
const maxMercatorLat = 85.05112878

// Project converts a coordinate to world pixel space at zoom z.
func Project(lat, lng float64, z int) (px, py float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	scale := TileSize * math.Exp2(float64(z))
	sinLat := math.Sin(lat * math.Pi / 180)

	px = (lng + 180) / 360 * scale
	py = (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale
	return px, py
}

// Unproject converts world pixel coordinates at zoom z back to degrees.
func Unproject(px, py float64, z int) (lat, lng float64) {
	scale := TileSize * math.Exp2(float64(z))
	lng = px/scale*360 - 180
	y2 := 180 - py/scale*360
	lat = 360/math.Pi*math.Atan(math.Exp(y2*math.Pi/180)) - 90
	return lat, lng
}
