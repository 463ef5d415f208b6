package pathfind

import (
	"math/rand"

	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/geometry"
)

const losLookahead = 12

// injectWaypoints applies spec.md §4.4's post-Dijkstra waypoint deviation:
// only for paths of length >= 15, pick N evenly-spaced anchors and detour
// each through a random offset point within ±maxOffset, re-pathing each leg.
// If any leg fails, the original path is returned unchanged.
func injectWaypoints(cm *collision.Map, path []geometry.WorldCoord, variance VarianceLevel, rng *rand.Rand) []geometry.WorldCoord {
	if len(path) < 15 {
		return path
	}
	minN, maxN := variance.waypointInjectRange()
	n := minN
	if maxN > minN {
		n = minN + rng.Intn(maxN-minN+1)
	}
	if n == 0 {
		return path
	}
	maxOffset := variance.maxOffset()

	anchors := make([]geometry.WorldCoord, 0, n+2)
	anchors = append(anchors, path[0])
	step := len(path) / (n + 1)
	if step == 0 {
		step = 1
	}
	for i := 1; i <= n; i++ {
		idx := i * step
		if idx >= len(path) {
			idx = len(path) - 1
		}
		base := path[idx]
		offset := geometry.WorldCoord{
			X:     base.X + int32(rng.Intn(2*maxOffset+1)-maxOffset),
			Y:     base.Y + int32(rng.Intn(2*maxOffset+1)-maxOffset),
			Plane: base.Plane,
		}
		anchors = append(anchors, offset)
	}
	anchors = append(anchors, path[len(path)-1])

	full := make([]geometry.WorldCoord, 0, len(path)+n*4)
	full = append(full, anchors[0])
	for i := 1; i < len(anchors); i++ {
		leg, ok := dijkstra(cm, anchors[i-1], anchors[i], variance, rng)
		if !ok || len(leg) == 0 {
			return path // fall back to original, unchanged
		}
		full = append(full, leg[1:]...)
	}
	return full
}

// simplifyByLineOfSight greedily collapses path to the farthest
// line-of-sight-reachable waypoint within losLookahead tiles at each step
// (spec.md §4.4).
func simplifyByLineOfSight(cm *collision.Map, path []geometry.WorldCoord) []geometry.WorldCoord {
	if len(path) <= 2 {
		return path
	}
	simplified := []geometry.WorldCoord{path[0]}
	anchorIdx := 0
	for anchorIdx < len(path)-1 {
		farthest := anchorIdx + 1
		limit := anchorIdx + losLookahead
		if limit > len(path)-1 {
			limit = len(path) - 1
		}
		for candidate := limit; candidate > anchorIdx+1; candidate-- {
			if hasLineOfSight(cm, path[anchorIdx], path[candidate]) {
				farthest = candidate
				break
			}
		}
		simplified = append(simplified, path[farthest])
		anchorIdx = farthest
	}
	return simplified
}

// hasLineOfSight walks the Bresenham line between a and b and requires
// every intermediate tile to have at least one walkable neighbor and not be
// itself fully blocked. Different planes are never connected.
func hasLineOfSight(cm *collision.Map, a, b geometry.WorldCoord) bool {
	if a.Plane != b.Plane {
		return false
	}
	line := geometry.Bresenham(a, b)
	for i := 1; i < len(line)-1; i++ {
		tile := line[i]
		if len(cm.Neighbors(tile)) == 0 {
			return false
		}
	}
	return true
}
