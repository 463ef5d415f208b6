package pathfind

import (
	"container/heap"
	"math"
	"math/rand"

	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/geometry"
)

// searchPadding bounds the Dijkstra frontier to a box around start/goal
// padded by this many tiles, so a single walkTo call never expands the
// priority queue over the entire world. Grounded on the same "clamp the
// search to a working window" idea as data.go's
// PointCloud.ClusterByDistance, which never scans beyond its cluster radius.
const searchPadding = 40

type pqItem struct {
	coord geometry.WorldCoord
	cost  float64
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i]; pq[i].index = i; pq[j].index = j }
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// dijkstra finds the least-cost 8-connected path from start to goal,
// bounded to a searchPadding window, with per-edge costs randomized by
// variance. Returns (path, true) including both endpoints, or (nil, false)
// if goal is unreachable within the search window.
func dijkstra(cm *collision.Map, start, goal geometry.WorldCoord, variance VarianceLevel, rng *rand.Rand) ([]geometry.WorldCoord, bool) {
	if start.Plane != goal.Plane {
		return nil, false
	}
	if start.Equal(goal) {
		return []geometry.WorldCoord{start}, true
	}

	minX := min32(start.X, goal.X) - searchPadding
	maxX := max32(start.X, goal.X) + searchPadding
	minY := min32(start.Y, goal.Y) - searchPadding
	maxY := max32(start.Y, goal.Y) + searchPadding
	inBounds := func(c geometry.WorldCoord) bool {
		return c.X >= minX && c.X <= maxX && c.Y >= minY && c.Y <= maxY
	}

	factorMin, factorMax := variance.edgeFactorRange()

	dist := map[geometry.WorldCoord]float64{start: 0}
	prev := map[geometry.WorldCoord]geometry.WorldCoord{}
	visited := map[geometry.WorldCoord]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{coord: start, cost: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		if visited[cur.coord] {
			continue
		}
		visited[cur.coord] = true
		if cur.coord.Equal(goal) {
			return reconstructPath(prev, start, goal), true
		}

		for _, next := range cm.Neighbors(cur.coord) {
			if !inBounds(next) || visited[next] {
				continue
			}
			base := 1.0
			if next.X != cur.coord.X && next.Y != cur.coord.Y {
				base = math.Sqrt2
			}
			factor := factorMin + rng.Float64()*(factorMax-factorMin)
			edgeCost := base * factor
			newCost := dist[cur.coord] + edgeCost
			if existing, ok := dist[next]; !ok || newCost < existing {
				dist[next] = newCost
				prev[next] = cur.coord
				heap.Push(pq, &pqItem{coord: next, cost: newCost})
			}
		}
	}
	return nil, false
}

func reconstructPath(prev map[geometry.WorldCoord]geometry.WorldCoord, start, goal geometry.WorldCoord) []geometry.WorldCoord {
	path := []geometry.WorldCoord{goal}
	cur := goal
	for cur != start {
		p, ok := prev[cur]
		if !ok {
			break
		}
		path = append(path, p)
		cur = p
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
