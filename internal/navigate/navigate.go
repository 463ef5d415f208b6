// Package navigate implements the Navigator's walkTo procedure (spec.md
// §4.5): pathfinder-or-linear waypoint planning, minimap-range chunking,
// randomized re-path rolls, stuck detection, and the yaw-corrected minimap
// click math. Grounded on movement.go's MovementCoordinator
// (CircleMove/AvoidObstacle shape: compute waypoints, drive input, watch
// telemetry feedback), retargeted from JS-injected clicks to
// input.Synthesizer plus the Pathfinder/CollisionMap built for this module.
package navigate

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/pathfind"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

const (
	arrivalToleranceTiles = 2
	minimapRangeTiles     = 12
	arrivalTimeout        = 30 * time.Second
	stuckSampleInterval   = 1 * time.Second
	stuckTripDuration     = 3 * time.Second
	stuckEventLimit       = 3
	repathRollPercent     = 0.20
	linearWaypointMinTile = 10
	linearWaypointMaxTile = 12
)

// Minimap describes the on-screen minimap widget used to convert tile
// deltas into click coordinates (spec.md §4.5's "minimap click math").
type Minimap struct {
	CenterX, CenterY int
	RadiusPx         int
	PxPerTile        float64 // calibration constant, spec.md §9 ("≈4 px/tile")
}

// Navigator drives walkTo journeys.
type Navigator struct {
	telemetry  *telemetry.Client
	pathfinder *pathfind.Pathfinder
	collision  *collision.Map
	input      *input.Synthesizer
	minimap    Minimap
	variance   pathfind.VarianceLevel
	rng        *rand.Rand
}

// New builds a Navigator. collisionMap may be nil, meaning pathfinding data
// is unavailable and every walkTo falls back to the linear waypoint mode.
// variance is the profile's configured path-variance level (spec.md §9).
func New(client *telemetry.Client, pf *pathfind.Pathfinder, cm *collision.Map, synth *input.Synthesizer, minimap Minimap, variance pathfind.VarianceLevel) *Navigator {
	return &Navigator{
		telemetry:  client,
		pathfinder: pf,
		collision:  cm,
		input:      synth,
		minimap:    minimap,
		variance:   variance,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WalkTo drives the avatar to goal on the given plane, per spec.md §4.5.
func (n *Navigator) WalkTo(ctx context.Context, goal geometry.WorldCoord, usePathfinding bool) bool {
	start, ok := n.currentPosition(ctx)
	if !ok {
		logging.Warn("navigate: cannot read current position")
		return false
	}
	if start.DistanceTiles(goal) <= arrivalToleranceTiles {
		return true
	}

	waypoints := n.planWaypoints(start, goal, usePathfinding)
	if len(waypoints) == 0 {
		return false
	}

	stuckEvents := 0
	lastPositions := make([]geometry.WorldCoord, 0, 4)

	remaining := waypoints
	for len(remaining) > 0 {
		current, ok := n.currentPosition(ctx)
		if !ok {
			return false
		}

		chunk := n.selectChunkTarget(current, remaining)
		dx := float64(chunk.X - current.X)
		dy := float64(chunk.Y - current.Y)

		if n.rng.Float64() < repathRollPercent {
			replanned := n.planWaypoints(current, goal, usePathfinding)
			if len(replanned) > 0 {
				remaining = replanned
				continue
			}
		}

		n.clickMinimap(ctx, dx, dy)

		arrived, stuck := n.waitForArrival(ctx, chunk, &lastPositions)
		if stuck {
			stuckEvents++
			n.pathfinder.ClearCache()
			if stuckEvents >= stuckEventLimit {
				logging.Warn("navigate: stuck limit reached, aborting journey")
				return false
			}
			// Recompute from wherever we actually ended up.
			current, ok = n.currentPosition(ctx)
			if !ok {
				return false
			}
			remaining = n.planWaypoints(current, goal, usePathfinding)
			continue
		}
		if !arrived {
			return false
		}
		remaining = n.dropReached(remaining, chunk)
	}

	final, ok := n.currentPosition(ctx)
	return ok && final.DistanceTiles(goal) <= arrivalToleranceTiles
}

func (n *Navigator) currentPosition(ctx context.Context) (geometry.WorldCoord, bool) {
	coords, ok := n.telemetry.Coords(ctx)
	if !ok {
		return geometry.WorldCoord{}, false
	}
	return coords.WorldCoord(), true
}

// planWaypoints requests a Pathfinder route when enabled and collision data
// is available, falling back to straight-line waypoints every 10-12 tiles.
func (n *Navigator) planWaypoints(start, goal geometry.WorldCoord, usePathfinding bool) []geometry.WorldCoord {
	if usePathfinding && n.collision != nil && n.pathfinder != nil {
		if path, ok := n.pathfinder.FindPath(start, goal, n.variance); ok {
			return path
		}
	}
	return linearWaypoints(start, goal, n.rng)
}

func linearWaypoints(start, goal geometry.WorldCoord, rng *rand.Rand) []geometry.WorldCoord {
	dist := start.EuclideanTiles(goal)
	if dist == 0 {
		return []geometry.WorldCoord{start}
	}
	step := linearWaypointMinTile + rng.Intn(linearWaypointMaxTile-linearWaypointMinTile+1)
	count := int(math.Ceil(dist / float64(step)))
	if count < 1 {
		count = 1
	}

	waypoints := make([]geometry.WorldCoord, 0, count+1)
	waypoints = append(waypoints, start)
	for i := 1; i <= count; i++ {
		t := float64(i) / float64(count)
		waypoints = append(waypoints, geometry.WorldCoord{
			X:     start.X + int32(float64(goal.X-start.X)*t),
			Y:     start.Y + int32(float64(goal.Y-start.Y)*t),
			Plane: goal.Plane,
		})
	}
	return waypoints
}

// selectChunkTarget greedily picks the farthest waypoint within
// minimapRangeTiles of current (spec.md §4.5 step 5).
func (n *Navigator) selectChunkTarget(current geometry.WorldCoord, waypoints []geometry.WorldCoord) geometry.WorldCoord {
	best := waypoints[0]
	for _, wp := range waypoints {
		if current.EuclideanTiles(wp) <= minimapRangeTiles {
			best = wp
		}
	}
	return best
}

func (n *Navigator) dropReached(waypoints []geometry.WorldCoord, reached geometry.WorldCoord) []geometry.WorldCoord {
	for i, wp := range waypoints {
		if wp == reached {
			return waypoints[i+1:]
		}
	}
	return nil
}

// waitForArrival polls position roughly every second until chunk is
// reached (within tolerance), the arrivalTimeout elapses, or the position
// holds identical for stuckTripDuration across >=3 samples.
func (n *Navigator) waitForArrival(ctx context.Context, chunk geometry.WorldCoord, history *[]geometry.WorldCoord) (arrived bool, stuck bool) {
	deadline := time.Now().Add(arrivalTimeout)
	*history = (*history)[:0]

	for time.Now().Before(deadline) {
		pos, ok := n.currentPosition(ctx)
		if !ok {
			return false, false
		}
		if pos.DistanceTiles(chunk) <= arrivalToleranceTiles {
			return true, false
		}

		// Samples needed to span stuckTripDuration at stuckSampleInterval.
		need := int(stuckTripDuration/stuckSampleInterval) + 1
		*history = append(*history, pos)
		if len(*history) > need {
			*history = (*history)[len(*history)-need:]
		}
		if len(*history) == need {
			same := true
			for _, p := range (*history)[1:] {
				same = same && p == (*history)[0]
			}
			if same {
				return false, true
			}
		}

		time.Sleep(stuckSampleInterval)
	}
	return false, false
}

// clickMinimap converts a tile delta into a minimap screen click, per
// spec.md §4.5's yaw-correction math: read camera yaw (or force yaw=0 via
// the compass if unreadable), rotate the offset by -yaw, scale by the
// calibration constant, add the minimap center plus jitter, reject targets
// outside the circular minimap.
func (n *Navigator) clickMinimap(ctx context.Context, dxTiles, dyTiles float64) {
	yaw := 0
	if cam, ok := n.telemetry.Camera(ctx); ok {
		yaw = cam.Yaw
	} else {
		n.input.Tap("compass", 0) // force yaw=0 by clicking the compass
	}
	rotatedX, rotatedY := rotateByYaw(dxTiles, dyTiles, yaw)

	pxPerTile := n.minimap.PxPerTile
	if pxPerTile <= 0 {
		pxPerTile = 4.0
	}
	jitterX := n.rng.Float64()*5 - 2.5
	jitterY := n.rng.Float64()*5 - 2.5

	targetX := n.minimap.CenterX + int(rotatedX*pxPerTile+jitterX)
	targetY := n.minimap.CenterY + int(rotatedY*pxPerTile+jitterY)

	distFromCenter := math.Hypot(float64(targetX-n.minimap.CenterX), float64(targetY-n.minimap.CenterY))
	if n.minimap.RadiusPx > 0 && distFromCenter > float64(n.minimap.RadiusPx) {
		logging.Debug("navigate: minimap target outside radius, clamping", "dist", distFromCenter)
		scale := float64(n.minimap.RadiusPx) / distFromCenter
		targetX = n.minimap.CenterX + int(float64(targetX-n.minimap.CenterX)*scale)
		targetY = n.minimap.CenterY + int(float64(targetY-n.minimap.CenterY)*scale)
	}

	n.input.MoveTo(targetX, targetY, 180*time.Millisecond, 0.3)
	n.input.Click(input.ButtonLeft)
}

// rotateByYaw rotates a tile delta by -yaw (undoing camera rotation), where
// yaw is in the game's [0,2048) units (spec.md §4.5).
func rotateByYaw(dxTiles, dyTiles float64, yaw int) (float64, float64) {
	theta := float64(yaw) * 2 * math.Pi / 2048
	rotatedX := dxTiles*math.Cos(-theta) - dyTiles*math.Sin(-theta)
	rotatedY := dxTiles*math.Sin(-theta) + dyTiles*math.Cos(-theta)
	return rotatedX, rotatedY
}
