package pathfind

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyff-runtime/botcore/internal/collision"
	"github.com/flyff-runtime/botcore/internal/geometry"
)

// openArchive builds a single fully-open 64x64 region (0,0), optionally
// with a wall: every tile along wallX has its east edge closed except at
// the given gap tileY values.
func openArchive(t *testing.T, wallX int, gapYs map[int]bool) *collision.Archive {
	t.Helper()
	const tilesPerSide = 64
	const bytesPerPlane = tilesPerSide * tilesPerSide * 2 / 8
	const bytesPerRegion = bytesPerPlane * 4

	payload := make([]byte, bytesPerRegion)
	setBit := func(tileX, tileY int, f int) {
		tileIndex := tileY*tilesPerSide + tileX
		bitIndex := tileIndex*2 + f
		byteIndex := bitIndex / 8
		payload[byteIndex] |= 1 << uint(bitIndex%8)
	}
	for y := 0; y < tilesPerSide; y++ {
		for x := 0; x < tilesPerSide-1; x++ {
			if x == wallX && !gapYs[y] {
				continue // leave east edge closed: wall
			}
			setBit(x, y, 1) // east
		}
	}
	for y := 0; y < tilesPerSide-1; y++ {
		for x := 0; x < tilesPerSide; x++ {
			setBit(x, y, 0) // north
		}
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create(fmt.Sprintf("%d_%d", 0, 0))
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	f, err := os.CreateTemp(t.TempDir(), "pathfind-*.zip")
	require.NoError(t, err)
	_, err = f.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, f.Close())

	archive, err := collision.OpenArchive(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestFindPathSelfReturnsSingleTile(t *testing.T) {
	cm := collision.New(openArchive(t, -1, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	path, ok := pf.FindPath(start, start, Conservative)
	require.True(t, ok)
	assert.Equal(t, []geometry.WorldCoord{start}, path)
}

func TestFindPathCrossPlaneIsAbsent(t *testing.T) {
	cm := collision.New(openArchive(t, -1, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 10, Y: 5, Plane: 1}
	_, ok := pf.FindPath(start, goal, Conservative)
	assert.False(t, ok)
}

func TestFindPathDetoursAroundWallGap(t *testing.T) {
	cm := collision.New(openArchive(t, 20, map[int]bool{10: true}))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 35, Y: 5, Plane: 0}
	path, ok := pf.FindPath(start, goal, Conservative)
	require.True(t, ok)
	require.NotEmpty(t, path)
	assert.Equal(t, goal, path[len(path)-1])

	// The raw graph search (pre-simplification) must actually cross at the
	// one open gap in the wall; the public, simplified path is allowed to
	// elide intermediate waypoints per spec.md §4.4's loose line-of-sight
	// heuristic, so we assert on the underlying route directly.
	raw, ok := dijkstra(cm, start, goal, Conservative, pf.rng)
	require.True(t, ok)
	foundGapCrossing := false
	for _, c := range raw {
		if c.Y == 10 {
			foundGapCrossing = true
		}
	}
	assert.True(t, foundGapCrossing, "raw path must route through the wall gap at y=10")
}

func TestFindPathUnreachableWhenWallHasNoGap(t *testing.T) {
	cm := collision.New(openArchive(t, 20, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 35, Y: 5, Plane: 0}
	_, ok := pf.FindPath(start, goal, Conservative)
	assert.False(t, ok)
}

func TestFindPathCacheReturnsIndependentSlices(t *testing.T) {
	cm := collision.New(openArchive(t, -1, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 15, Y: 5, Plane: 0}

	first, ok := pf.FindPath(start, goal, Conservative)
	require.True(t, ok)
	first[0] = geometry.WorldCoord{X: 999, Y: 999, Plane: 0}

	second, ok := pf.FindPath(start, goal, Conservative)
	require.True(t, ok)
	assert.Equal(t, start, second[0], "mutating a returned path must not corrupt the cache")
}

func TestFindPathOnOpenGridIsSimplified(t *testing.T) {
	cm := collision.New(openArchive(t, -1, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 0, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 25, Y: 5, Plane: 0}
	path, ok := pf.FindPath(start, goal, Conservative)
	require.True(t, ok)
	assert.Less(t, len(path), 25, "line-of-sight simplification should collapse a clear straight run")
}

func TestClearCacheForcesRecompute(t *testing.T) {
	cm := collision.New(openArchive(t, -1, nil))
	pf := New(cm)
	start := geometry.WorldCoord{X: 5, Y: 5, Plane: 0}
	goal := geometry.WorldCoord{X: 12, Y: 5, Plane: 0}

	_, ok := pf.FindPath(start, goal, Conservative)
	require.True(t, ok)
	pf.ClearCache()
	_, hit := pf.cache.get(pathKey{start, goal})
	assert.False(t, hit)
}
