package collision

import (
	"container/list"
	"sync"

	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/logging"
)

// DefaultCacheCap is the default number of regions held in memory at once
// (spec.md §4.3: "cap 50 regions").
const DefaultCacheCap = 50

type regionKey struct {
	x, y int32
}

// regionCache is a small LRU keyed by region coordinates. container/list
// gives us an ordered doubly-linked list for O(1) move-to-front and evict;
// no pack example ships a generic LRU, so this is the one stdlib-only piece
// of the collision subsystem (see DESIGN.md).
type regionCache struct {
	mu       sync.Mutex
	cap      int
	ll       *list.List
	elements map[regionKey]*list.Element
}

type cacheEntry struct {
	key     regionKey
	payload *regionPayload
	present bool // false = archive member absent, cached as a negative hit
}

func newRegionCache(cap int) *regionCache {
	if cap <= 0 {
		cap = DefaultCacheCap
	}
	return &regionCache{
		cap:      cap,
		ll:       list.New(),
		elements: make(map[regionKey]*list.Element),
	}
}

func (c *regionCache) get(key regionKey) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry), true
}

func (c *regionCache) put(entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[entry.key]; ok {
		el.Value = entry
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(entry)
	c.elements[entry.key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.elements, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Map answers walkability queries over an Archive through an LRU region
// cache, per spec.md §4.3. It is safe for concurrent use.
type Map struct {
	archive *Archive
	cache   *regionCache
}

// New builds a Map over archive with the default region cache capacity.
func New(archive *Archive) *Map {
	return NewWithCacheSize(archive, DefaultCacheCap)
}

// NewWithCacheSize builds a Map with a caller-chosen cache size, mainly
// for tests that want to exercise eviction without loading 50+ regions.
func NewWithCacheSize(archive *Archive, cacheSize int) *Map {
	return &Map{archive: archive, cache: newRegionCache(cacheSize)}
}

func (m *Map) region(regionX, regionY int32) (*regionPayload, bool) {
	key := regionKey{regionX, regionY}
	if entry, ok := m.cache.get(key); ok {
		return entry.payload, entry.present
	}
	payload, ok := m.archive.loadRegion(regionX, regionY)
	m.cache.put(&cacheEntry{key: key, payload: payload, present: ok})
	if !ok {
		logging.Debug("collision: region absent, treating as blocked", "regionX", regionX, "regionY", regionY)
	}
	return payload, ok
}

// canMove reports whether the tile edge in direction f out of (x,y,plane)
// is open. Tiles in archive-absent regions are always blocked.
func (m *Map) canMove(x, y int32, plane int8, f flag) bool {
	regionX, regionY, tileX, tileY := geometry.RegionOf(x, y)
	payload, ok := m.region(regionX, regionY)
	if !ok {
		return false
	}
	return payload.bit(tileX, tileY, plane, f)
}

// CanMoveNorth reports whether the tile immediately north of (x,y) on plane
// is reachable from (x,y).
func (m *Map) CanMoveNorth(x, y int32, plane int8) bool {
	return m.canMove(x, y, plane, flagNorth)
}

// CanMoveEast reports whether the tile immediately east of (x,y) on plane is
// reachable from (x,y).
func (m *Map) CanMoveEast(x, y int32, plane int8) bool {
	return m.canMove(x, y, plane, flagEast)
}

// CanMoveSouth reports whether (x,y) can be reached by moving south from
// (x,y-1) — the inverse of that tile's north flag.
func (m *Map) CanMoveSouth(x, y int32, plane int8) bool {
	return m.canMove(x, y-1, plane, flagNorth)
}

// CanMoveWest reports whether (x,y) can be reached by moving west from
// (x-1,y) — the inverse of that tile's east flag.
func (m *Map) CanMoveWest(x, y int32, plane int8) bool {
	return m.canMove(x-1, y, plane, flagEast)
}

// Direction is one of the eight compass directions used for diagonal
// movement checks.
type Direction int

const (
	North Direction = iota
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// CanMove reports whether a single-tile step from (x,y,plane) in dir is
// legal. Diagonal steps apply the corner rule (spec.md §4.3): a diagonal is
// only open if BOTH orthogonal components bordering it are also open,
// preventing cutting through a blocked corner.
func (m *Map) CanMove(x, y int32, plane int8, dir Direction) bool {
	switch dir {
	case North:
		return m.CanMoveNorth(x, y, plane)
	case South:
		return m.CanMoveSouth(x, y, plane)
	case East:
		return m.CanMoveEast(x, y, plane)
	case West:
		return m.CanMoveWest(x, y, plane)
	case NorthEast:
		return m.CanMoveNorth(x, y, plane) && m.CanMoveEast(x, y, plane) &&
			m.CanMoveEast(x, y+1, plane) && m.CanMoveNorth(x+1, y, plane)
	case NorthWest:
		return m.CanMoveNorth(x, y, plane) && m.CanMoveWest(x, y, plane) &&
			m.CanMoveWest(x, y+1, plane) && m.CanMoveNorth(x-1, y, plane)
	case SouthEast:
		return m.CanMoveSouth(x, y, plane) && m.CanMoveEast(x, y, plane) &&
			m.CanMoveEast(x, y-1, plane) && m.CanMoveSouth(x+1, y, plane)
	case SouthWest:
		return m.CanMoveSouth(x, y, plane) && m.CanMoveWest(x, y, plane) &&
			m.CanMoveWest(x, y-1, plane) && m.CanMoveSouth(x-1, y, plane)
	default:
		return false
	}
}

// Neighbors returns every coordinate directly reachable in one step from
// (coord), applying the corner rule to diagonals. Used by the pathfinder.
func (m *Map) Neighbors(coord geometry.WorldCoord) []geometry.WorldCoord {
	dirs := []struct {
		dir    Direction
		dx, dy int32
	}{
		{North, 0, 1}, {South, 0, -1}, {East, 1, 0}, {West, -1, 0},
		{NorthEast, 1, 1}, {NorthWest, -1, 1}, {SouthEast, 1, -1}, {SouthWest, -1, -1},
	}
	out := make([]geometry.WorldCoord, 0, 8)
	for _, d := range dirs {
		if m.CanMove(coord.X, coord.Y, coord.Plane, d.dir) {
			out = append(out, geometry.WorldCoord{X: coord.X + d.dx, Y: coord.Y + d.dy, Plane: coord.Plane})
		}
	}
	return out
}
