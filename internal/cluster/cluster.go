// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package cluster groups nearby map points into clusters per zoom level.
//
// Points are projected into normalized Web Mercator space ([0,1] on both
// axes). Levels are built top-down starting at MaxZoom+1, where every point
// stands alone; each lower zoom greedily merges the items of the level above
// that fall within Radius pixels of each other. Neighbor search uses a
// uniform hash grid whose cell size equals the search radius, so each lookup
// only inspects the 3x3 block of cells around an item.
//
// Levels are computed lazily, only as deep as the lowest zoom queried.
package cluster

import (
	"math"
	"strconv"

	"github.com/tomtom215/spotmap/internal/geo"
)

// Options configures clustering.
type Options struct {
	// MinPoints is the smallest group that becomes a cluster.
	// Default: 3
	MinPoints int

	// Radius is the search radius in pixels relative to Extent.
	// Default: 60
	Radius float64

	// Extent is the tile extent the radius is measured against.
	// Default: 512
	Extent float64

	// MaxZoom is the highest zoom that still clusters. Queries above it
	// return individual points.
	// Default: 18
	MaxZoom int
}

// DefaultOptions returns the production clustering parameters.
func DefaultOptions() Options {
	return Options{
		MinPoints: 3,
		Radius:    60,
		Extent:    512,
		MaxZoom:   18,
	}
}

// Point is an input coordinate. Index is echoed back in results so callers
// can map them to their own records.
type Point struct {
	Index int
	Lat   float64
	Lng   float64
}

// Result is either a cluster or a single point.
type Result struct {
	// Cluster is true when the result aggregates several points.
	Cluster bool

	// ClusterID is unique within an Index. Zero for single points.
	ClusterID int64

	// Count is the number of input points represented.
	Count int

	// Lat and Lng are the position, the weighted centroid for clusters.
	Lat float64
	Lng float64

	// Indices holds the Point.Index of every member.
	Indices []int
}

// Abbreviated returns a compact label for a cluster size, e.g. "950",
// "1.2k" or "14k".
func Abbreviated(count int) string {
	switch {
	case count >= 10000:
		return strconv.Itoa(int(math.Round(float64(count)/1000))) + "k"
	case count >= 1000:
		return strconv.FormatFloat(math.Round(float64(count)/100)/10, 'f', -1, 64) + "k"
	default:
		return strconv.Itoa(count)
	}
}

// node is one item in a zoom level.
type node struct {
	x, y      float64
	count     int
	clusterID int64
	members   []int
	zoom      int // zoom at which this node was last processed
}

type cellKey struct {
	X, Y int
}

// Index holds the clustering hierarchy for one set of points.
// It is not safe for concurrent use.
type Index struct {
	opts      Options
	numPoints int
	levels    map[int][]*node
	lowest    int
}

// New returns an empty Index. Zero option fields take their defaults.
func New(opts Options) *Index {
	def := DefaultOptions()
	if opts.MinPoints <= 0 {
		opts.MinPoints = def.MinPoints
	}
	if opts.Radius <= 0 {
		opts.Radius = def.Radius
	}
	if opts.Extent <= 0 {
		opts.Extent = def.Extent
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = def.MaxZoom
	}
	return &Index{
		opts:   opts,
		levels: make(map[int][]*node),
	}
}

// Load replaces the indexed points.
func (idx *Index) Load(points []Point) {
	top := make([]*node, 0, len(points))
	for _, p := range points {
		x, y := normalized(p.Lat, p.Lng)
		top = append(top, &node{
			x:       x,
			y:       y,
			count:   1,
			members: []int{p.Index},
			zoom:    math.MaxInt,
		})
	}
	idx.numPoints = len(points)
	idx.levels = map[int][]*node{idx.opts.MaxZoom + 1: top}
	idx.lowest = idx.opts.MaxZoom + 1
}

// Clusters returns the clusters and lone points at zoom that fall inside b.
func (idx *Index) Clusters(b geo.Bounds, zoom int) []Result {
	level := idx.level(zoom)

	minX, maxY := normalized(b.MinLat, b.MinLng)
	maxX, minY := normalized(b.MaxLat, b.MaxLng)

	results := make([]Result, 0, len(level))
	for _, n := range level {
		if n.x < minX || n.x > maxX || n.y < minY || n.y > maxY {
			continue
		}
		results = append(results, n.result())
	}
	return results
}

func (n *node) result() Result {
	lat, lng := denormalized(n.x, n.y)
	return Result{
		Cluster:   n.count > 1,
		ClusterID: n.clusterID,
		Count:     n.count,
		Lat:       lat,
		Lng:       lng,
		Indices:   n.members,
	}
}

// level returns the items at zoom, building lower levels as needed.
func (idx *Index) level(zoom int) []*node {
	if zoom > idx.opts.MaxZoom+1 {
		zoom = idx.opts.MaxZoom + 1
	}
	if zoom < 0 {
		zoom = 0
	}
	for idx.lowest > zoom {
		next := idx.lowest - 1
		idx.levels[next] = idx.clusterLevel(idx.levels[idx.lowest], next)
		idx.lowest = next
	}
	return idx.levels[zoom]
}

// clusterLevel merges the items of the level above into clusters for zoom.
func (idx *Index) clusterLevel(items []*node, zoom int) []*node {
	r := idx.opts.Radius / (idx.opts.Extent * math.Exp2(float64(zoom)))
	grid := buildGrid(items, r)

	out := make([]*node, 0, len(items))
	for i, n := range items {
		if n.zoom <= zoom {
			continue
		}
		n.zoom = zoom

		neighbors := grid.within(n, r)
		total := n.count
		for _, nb := range neighbors {
			if nb.zoom > zoom {
				total += nb.count
			}
		}

		if total < idx.opts.MinPoints {
			out = append(out, n)
			for _, nb := range neighbors {
				if nb.zoom > zoom {
					nb.zoom = zoom
					out = append(out, nb)
				}
			}
			continue
		}

		wx := n.x * float64(n.count)
		wy := n.y * float64(n.count)
		members := append([]int(nil), n.members...)
		for _, nb := range neighbors {
			if nb.zoom <= zoom {
				continue
			}
			nb.zoom = zoom
			wx += nb.x * float64(nb.count)
			wy += nb.y * float64(nb.count)
			members = append(members, nb.members...)
		}

		out = append(out, &node{
			x:         wx / float64(total),
			y:         wy / float64(total),
			count:     total,
			clusterID: int64(i<<5) + int64(zoom+1) + int64(idx.numPoints),
			members:   members,
			zoom:      math.MaxInt,
		})
	}

	// Items carried over must be reprocessable at the next zoom down.
	for _, n := range out {
		n.zoom = math.MaxInt
	}
	return out
}

type grid struct {
	size  float64
	cells map[cellKey][]*node
}

func buildGrid(items []*node, size float64) *grid {
	g := &grid{size: size, cells: make(map[cellKey][]*node)}
	for _, n := range items {
		k := g.key(n.x, n.y)
		g.cells[k] = append(g.cells[k], n)
	}
	return g
}

func (g *grid) key(x, y float64) cellKey {
	return cellKey{X: int(math.Floor(x / g.size)), Y: int(math.Floor(y / g.size))}
}

// within returns the items other than n whose distance to n is at most r.
func (g *grid) within(n *node, r float64) []*node {
	center := g.key(n.x, n.y)
	r2 := r * r

	var found []*node
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, other := range g.cells[cellKey{X: center.X + dx, Y: center.Y + dy}] {
				if other == n {
					continue
				}
				ddx, ddy := other.x-n.x, other.y-n.y
				if ddx*ddx+ddy*ddy <= r2 {
					found = append(found, other)
				}
			}
		}
	}
	return found
}

// normalized projects a coordinate into [0,1] Web Mercator space.
func normalized(lat, lng float64) (x, y float64) {
	px, py := geo.Project(lat, lng, 0)
	return px / geo.TileSize, py / geo.TileSize
}

func denormalized(x, y float64) (lat, lng float64) {
	return geo.Unproject(x*geo.TileSize, y*geo.TileSize, 0)
}
