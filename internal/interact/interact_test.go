package interact

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/geometry"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestNearestWithTiebreakPicksClosest(t *testing.T) {
	it := &Interactor{rng: newTestRand()}
	player := geometry.WorldCoord{X: 0, Y: 0, Plane: 0}
	candidates := []Entity{
		{ID: 1, World: geometry.WorldCoord{X: 10, Y: 0, Plane: 0}},
		{ID: 2, World: geometry.WorldCoord{X: 2, Y: 0, Plane: 0}},
		{ID: 3, World: geometry.WorldCoord{X: 5, Y: 5, Plane: 0}},
	}
	best := it.nearestWithTiebreak(candidates, player)
	assert.Equal(t, 2, best.ID)
}

func TestNearestWithTiebreakRandomlyBreaksTies(t *testing.T) {
	it := &Interactor{rng: newTestRand()}
	player := geometry.WorldCoord{X: 0, Y: 0, Plane: 0}
	candidates := []Entity{
		{ID: 1, World: geometry.WorldCoord{X: 5, Y: 0, Plane: 0}},
		{ID: 2, World: geometry.WorldCoord{X: 0, Y: 5, Plane: 0}},
	}
	best := it.nearestWithTiebreak(candidates, player)
	assert.Contains(t, []int{1, 2}, best.ID)
}

func TestSamplePointFallsBackToGameAreaCenterWithoutHull(t *testing.T) {
	it := &Interactor{rng: newTestRand(), gameArea: geometry.NewBounds(0, 0, 800, 600)}
	entity := Entity{HasHull: false}
	p := it.samplePoint(entity)
	assert.Equal(t, 400, p.X)
	assert.Equal(t, 300, p.Y)
}

func TestSamplePointStaysInsideGameArea(t *testing.T) {
	it := &Interactor{rng: newTestRand(), gameArea: geometry.NewBounds(0, 0, 800, 600)}
	hull := geometry.NewPolygon([]geometry.Point{{X: 790, Y: 590}, {X: 850, Y: 590}, {X: 850, Y: 650}, {X: 790, Y: 650}})
	entity := Entity{HasHull: true, Hull: hull}
	for i := 0; i < 20; i++ {
		p := it.samplePoint(entity)
		assert.LessOrEqual(t, p.X, 800)
		assert.LessOrEqual(t, p.Y, 600)
	}
}
