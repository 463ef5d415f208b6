package geometry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorldCoordRegionRoundTrip(t *testing.T) {
	coords := []WorldCoord{
		{X: 3285, Y: 3420, Plane: 0},
		{X: 0, Y: 0, Plane: 0},
		{X: -70, Y: 130, Plane: 2},
	}
	for _, c := range coords {
		regionX, regionY, tileX, tileY := RegionOf(c.X, c.Y)
		gotX := regionX*64 + int32(tileX)
		gotY := regionY*64 + int32(tileY)
		assert.Equal(t, c.X, gotX)
		assert.Equal(t, c.Y, gotY)
	}
}

func TestWorldCoordDistanceTiles(t *testing.T) {
	a := WorldCoord{X: 3285, Y: 3420}
	b := WorldCoord{X: 3287, Y: 3419}
	assert.Equal(t, 2, a.DistanceTiles(b))
}

func TestPolygonContainsEvenOdd(t *testing.T) {
	square := NewPolygon([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	assert.True(t, square.Contains(Point{X: 5, Y: 5}))
	assert.False(t, square.Contains(Point{X: 20, Y: 20}))
}

func TestPolygonRoundTrip(t *testing.T) {
	original := NewPolygon([]Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 1}})
	rebuilt := NewPolygon(original.Vertices)
	assert.Equal(t, original, rebuilt)
}

func TestPolygonAreaAndCentroidTriangle(t *testing.T) {
	tri := NewPolygon([]Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 4}})
	assert.InDelta(t, 8.0, tri.Area(), 0.001)
	c := tri.Centroid()
	assert.InDelta(t, 1.33, float64(c.X), 0.6)
}

func TestPolygonRandomInteriorStaysInside(t *testing.T) {
	hull := NewPolygon([]Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}})
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := hull.RandomInterior(rng)
		assert.True(t, hull.Contains(p), "sample %v escaped hull", p)
	}
}

func TestBresenhamEndpoints(t *testing.T) {
	a := WorldCoord{X: 0, Y: 0, Plane: 0}
	b := WorldCoord{X: 5, Y: 3, Plane: 0}
	line := Bresenham(a, b)
	assert.Equal(t, a, line[0])
	assert.Equal(t, b, line[len(line)-1])
}

func TestRegionMaskRestrictsInterior(t *testing.T) {
	r := Region{
		Bounds: NewBounds(0, 0, 10, 10),
		Mask: func(x, y int) bool {
			return x < 5
		},
	}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		p := r.RandomInterior(rng)
		assert.LessOrEqual(t, p.X, 5)
	}
}
