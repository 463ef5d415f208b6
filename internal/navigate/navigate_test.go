package navigate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/geometry"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestLinearWaypointsStartsAndEndsCorrectly(t *testing.T) {
	start := geometry.WorldCoord{X: 0, Y: 0, Plane: 0}
	goal := geometry.WorldCoord{X: 100, Y: 0, Plane: 0}
	waypoints := linearWaypoints(start, goal, newTestRand())
	assert.Equal(t, start, waypoints[0])
	last := waypoints[len(waypoints)-1]
	assert.Equal(t, goal.X, last.X)
	assert.Equal(t, goal.Plane, last.Plane)
}

func TestLinearWaypointsSameTileReturnsSingleton(t *testing.T) {
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	waypoints := linearWaypoints(start, start, newTestRand())
	assert.Equal(t, []geometry.WorldCoord{start}, waypoints)
}

func TestSelectChunkTargetStaysWithinRange(t *testing.T) {
	n := &Navigator{}
	current := geometry.WorldCoord{X: 0, Y: 0, Plane: 0}
	waypoints := []geometry.WorldCoord{
		current,
		{X: 5, Y: 0, Plane: 0},
		{X: 11, Y: 0, Plane: 0},
		{X: 20, Y: 0, Plane: 0}, // out of minimapRangeTiles (12)
	}
	chunk := n.selectChunkTarget(current, waypoints)
	assert.Equal(t, int32(11), chunk.X)
}

func TestDropReachedTrimsPrefix(t *testing.T) {
	n := &Navigator{}
	waypoints := []geometry.WorldCoord{
		{X: 0, Y: 0, Plane: 0},
		{X: 1, Y: 0, Plane: 0},
		{X: 2, Y: 0, Plane: 0},
	}
	remaining := n.dropReached(waypoints, waypoints[1])
	assert.Equal(t, []geometry.WorldCoord{{X: 2, Y: 0, Plane: 0}}, remaining)
}

func TestRotateByYawZeroIsIdentity(t *testing.T) {
	x, y := rotateByYaw(3, 4, 0)
	assert.InDelta(t, 3.0, x, 0.0001)
	assert.InDelta(t, 4.0, y, 0.0001)
}

func TestRotateByYawQuarterTurn(t *testing.T) {
	// yaw=512 is a quarter turn (512/2048 * 2π = π/2).
	x, y := rotateByYaw(1, 0, 512)
	assert.InDelta(t, 0.0, x, 0.001)
	assert.InDelta(t, -1.0, y, 0.001)
	assert.InDelta(t, math.Hypot(x, y), 1.0, 0.001)
}
