// Package geometry implements the screen-space and world-space primitives
// shared by the navigation, camera, and interaction subsystems: points,
// rectangles, convex-hull polygons, and masked regions.
//
// These mirror data.go's Point/Bounds/PointCloud shapes (distance,
// bounding box, clustering) but add the Polygon and Region types the
// telemetry-driven design needs: entity hulls and click-target areas arrive
// as vertex lists over the wire rather than being discovered by clustering
// colored pixels.
package geometry

import (
	"math"
	"math/rand"
)

// Point is a 2D screen- or local-space coordinate.
type Point struct {
	X, Y int
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// WorldCoord is a tile address in the game's world grid.
type WorldCoord struct {
	X, Y  int32
	Plane int8
}

// Equal implements coordinate-wise equality (spec.md §3).
func (w WorldCoord) Equal(o WorldCoord) bool {
	return w.X == o.X && w.Y == o.Y && w.Plane == o.Plane
}

// DistanceTiles returns the Chebyshev (8-connected) tile distance, the
// metric the navigator uses for "within N tiles of goal" checks.
func (w WorldCoord) DistanceTiles(o WorldCoord) int {
	dx := int(w.X - o.X)
	dy := int(w.Y - o.Y)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// EuclideanTiles returns the straight-line tile distance, used for nearest-
// entity tie-breaking (spec.md §4.7).
func (w WorldCoord) EuclideanTiles(o WorldCoord) float64 {
	dx := float64(w.X - o.X)
	dy := float64(w.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// RegionOf decomposes a world tile into its region coordinates and the
// tile's offset within that 64x64 region, per spec.md §3's round-trip
// invariant: regionX*64+tileX, regionY*64+tileY reconstructs X, Y exactly.
func RegionOf(x, y int32) (regionX, regionY int32, tileX, tileY int) {
	regionX = x >> 6
	regionY = y >> 6
	tileX = int(x & 63)
	tileY = int(y & 63)
	return
}

// Bounds is an axis-aligned rectangle in screen space.
type Bounds struct {
	X, Y, W, H int
}

// NewBounds builds a Bounds from top-left corner and size.
func NewBounds(x, y, w, h int) Bounds { return Bounds{X: x, Y: y, W: w, H: h} }

// Center returns the bounds' midpoint.
func (b Bounds) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Contains reports whether p lies within the bounds, inclusive of edges.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// RandomInterior samples a uniformly random point within the bounds.
func (b Bounds) RandomInterior(rng *rand.Rand) Point {
	if b.W <= 0 || b.H <= 0 {
		return b.Center()
	}
	return Point{X: b.X + rng.Intn(b.W+1), Y: b.Y + rng.Intn(b.H+1)}
}

// Polygon is an ordered list of screen-space vertices describing an
// entity's convex hull (spec.md §3).
type Polygon struct {
	Vertices []Point
}

// NewPolygon builds a Polygon from a vertex list, copying it so later
// mutation of the caller's slice cannot retroactively change the polygon.
func NewPolygon(vertices []Point) Polygon {
	cp := make([]Point, len(vertices))
	copy(cp, vertices)
	return Polygon{Vertices: cp}
}

// Bounds returns the polygon's axis-aligned bounding box.
func (p Polygon) Bounds() Bounds {
	if len(p.Vertices) == 0 {
		return Bounds{}
	}
	minX, maxX := p.Vertices[0].X, p.Vertices[0].X
	minY, maxY := p.Vertices[0].Y, p.Vertices[0].Y
	for _, v := range p.Vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Area returns the polygon's area via the shoelace formula.
func (p Polygon) Area() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(p.Vertices[i].X)*float64(p.Vertices[j].Y) - float64(p.Vertices[j].X)*float64(p.Vertices[i].Y)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// Centroid returns the polygon's area-weighted centroid. Falls back to the
// bounding-box center for degenerate (zero-area) polygons.
func (p Polygon) Centroid() Point {
	n := len(p.Vertices)
	if n == 0 {
		return Point{}
	}
	if n < 3 {
		return p.Bounds().Center()
	}
	var cx, cy, area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(p.Vertices[i].X), float64(p.Vertices[i].Y)
		xj, yj := float64(p.Vertices[j].X), float64(p.Vertices[j].Y)
		cross := xi*yj - xj*yi
		area += cross
		cx += (xi + xj) * cross
		cy += (yi + yj) * cross
	}
	area /= 2
	if area == 0 {
		return p.Bounds().Center()
	}
	cx /= 6 * area
	cy /= 6 * area
	return Point{X: int(cx), Y: int(cy)}
}

// Contains reports whether pt lies within the polygon using the even-odd
// fill rule (spec.md §3).
func (p Polygon) Contains(pt Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.Vertices[i], p.Vertices[j]
		intersects := (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			float64(pt.X) < float64(vj.X-vi.X)*float64(pt.Y-vi.Y)/float64(vj.Y-vi.Y)+float64(vi.X)
		if intersects {
			inside = !inside
		}
	}
	return inside
}

// RandomInterior samples a uniformly random interior point via area-
// weighted fan triangulation from the centroid: triangles are chosen with
// probability proportional to area, then a uniform point is sampled inside
// the chosen triangle via barycentric coordinates (spec.md §3).
func (p Polygon) RandomInterior(rng *rand.Rand) Point {
	n := len(p.Vertices)
	if n == 0 {
		return Point{}
	}
	if n < 3 {
		return p.Bounds().RandomInterior(rng)
	}

	center := p.Centroid()
	areas := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		areas[i] = triangleArea(center, p.Vertices[i], p.Vertices[j])
		total += areas[i]
	}
	if total <= 0 {
		return p.Bounds().RandomInterior(rng)
	}

	pick := rng.Float64() * total
	idx := 0
	for i, a := range areas {
		if pick < a {
			idx = i
			break
		}
		pick -= a
	}
	j := (idx + 1) % n
	return samplePointInTriangle(center, p.Vertices[idx], p.Vertices[j], rng)
}

func triangleArea(a, b, c Point) float64 {
	return 0.5 * math.Abs(float64((b.X-a.X)*(c.Y-a.Y)-(c.X-a.X)*(b.Y-a.Y)))
}

func samplePointInTriangle(a, b, c Point, rng *rand.Rand) Point {
	r1 := math.Sqrt(rng.Float64())
	r2 := rng.Float64()
	x := (1-r1)*float64(a.X) + r1*(1-r2)*float64(b.X) + r1*r2*float64(c.X)
	y := (1-r1)*float64(a.Y) + r1*(1-r2)*float64(b.Y) + r1*r2*float64(c.Y)
	return Point{X: int(x), Y: int(y)}
}

// Region is a screen rectangle optionally masked to a non-rectangular
// subregion, used for "safe" click areas (spec.md §3).
type Region struct {
	Bounds Bounds
	// Mask, when non-nil, reports whether a point relative to Bounds' top
	// left corner is part of the region. A nil mask means "the full
	// rectangle."
	Mask func(localX, localY int) bool
}

// NewRegion builds an unmasked rectangular region.
func NewRegion(b Bounds) Region { return Region{Bounds: b} }

// Contains reports whether p is within the region, honoring the mask.
func (r Region) Contains(p Point) bool {
	if !r.Bounds.Contains(p) {
		return false
	}
	if r.Mask == nil {
		return true
	}
	return r.Mask(p.X-r.Bounds.X, p.Y-r.Bounds.Y)
}

// Center returns the region's geometric center, ignoring the mask.
func (r Region) Center() Point { return r.Bounds.Center() }

// RandomInterior samples a random point inside the region honoring the
// mask, retrying up to 64 times before falling back to the center.
func (r Region) RandomInterior(rng *rand.Rand) Point {
	for i := 0; i < 64; i++ {
		p := r.Bounds.RandomInterior(rng)
		if r.Mask == nil || r.Mask(p.X-r.Bounds.X, p.Y-r.Bounds.Y) {
			return p
		}
	}
	return r.Center()
}

// Bresenham returns every integer tile on the line from a to b inclusive,
// used by the pathfinder's line-of-sight simplification (spec.md §4.4).
func Bresenham(a, b WorldCoord) []WorldCoord {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	var out []WorldCoord
	x, y := x0, y0
	for {
		out = append(out, WorldCoord{X: int32(x), Y: int32(y), Plane: a.Plane})
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
