// Package pathfind implements the Dijkstra-over-collision-graph pathfinder
// with randomized edge costs, waypoint injection, and line-of-sight
// simplification (spec.md §4.4). It is grounded on data.go's
// clustering/scanning style rather than any pack third-party library —
// no example repo ships a graph-search library (see DESIGN.md).
package pathfind

import (
	"container/list"
	"math/rand"
	"sync"
	"time"

	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/logging"
)

// DefaultCacheCap is the path cache capacity named in spec.md §4.4 ("cap 100").
const DefaultCacheCap = 100

type pathKey struct {
	start, goal geometry.WorldCoord
}

// pathCache is an LRU over computed paths, the same container/list shape as
// collision.regionCache (no generics package in the pack to share this
// with; duplicated rather than introducing an import cycle between the two
// leaf packages).
type pathCache struct {
	mu       sync.Mutex
	cap      int
	ll       *list.List
	elements map[pathKey]*list.Element
}

type pathCacheEntry struct {
	key  pathKey
	path []geometry.WorldCoord
}

func newPathCache(cap int) *pathCache {
	if cap <= 0 {
		cap = DefaultCacheCap
	}
	return &pathCache{cap: cap, ll: list.New(), elements: make(map[pathKey]*list.Element)}
}

func (c *pathCache) get(key pathKey) ([]geometry.WorldCoord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*pathCacheEntry).path, true
}

func (c *pathCache) put(key pathKey, path []geometry.WorldCoord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[key]; ok {
		el.Value = &pathCacheEntry{key: key, path: path}
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&pathCacheEntry{key: key, path: path})
	c.elements[key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.elements, oldest.Value.(*pathCacheEntry).key)
		}
	}
}

// Clear drops every cached path. Called by the Navigator on stuck detection
// (spec.md §4.5 step 8).
func (c *pathCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.elements = make(map[pathKey]*list.Element)
}

// Pathfinder computes walkability-graph paths with a bounded LRU cache.
type Pathfinder struct {
	collision *collision.Map
	cache     *pathCache
	rng       *rand.Rand
}

// New builds a Pathfinder over a collision.Map with the default cache cap.
func New(cm *collision.Map) *Pathfinder {
	return &Pathfinder{
		collision: cm,
		cache:     newPathCache(DefaultCacheCap),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearCache drops the path cache (spec.md §4.5 step 8, on stuck detection).
func (pf *Pathfinder) ClearCache() {
	pf.cache.Clear()
}

// FindPath returns a simplified path from start to goal, or (nil, false) if
// unreachable. Cache hits are served directly, with randomness for the
// actual execution left entirely to the navigation/execution layer (spec.md
// §4.4: "fresh randomness comes only from the execution layer").
func (pf *Pathfinder) FindPath(start, goal geometry.WorldCoord, variance VarianceLevel) ([]geometry.WorldCoord, bool) {
	key := pathKey{start, goal}
	if cached, ok := pf.cache.get(key); ok {
		return clonePath(cached), true
	}

	raw, ok := dijkstra(pf.collision, start, goal, variance, pf.rng)
	if !ok {
		logging.Debug("pathfind: unreachable", "start", start, "goal", goal)
		return nil, false
	}

	withWaypoints := injectWaypoints(pf.collision, raw, variance, pf.rng)
	simplified := simplifyByLineOfSight(pf.collision, withWaypoints)

	pf.cache.put(key, simplified)
	return clonePath(simplified), true
}

func clonePath(path []geometry.WorldCoord) []geometry.WorldCoord {
	out := make([]geometry.WorldCoord, len(path))
	copy(out, path)
	return out
}
