package collision

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyff-runtime/botcore/internal/geometry"
)

// buildArchive writes a ZIP to a temp file with one member per (x,y) in
// regions, each built by the supplied setter, and returns the opened
// Archive; closing it is registered with t.Cleanup.
func buildArchive(t *testing.T, regions map[[2]int32]func(*regionPayload)) *Archive {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for key, set := range regions {
		var payload regionPayload
		if set != nil {
			set(&payload)
		}
		w, err := zw.Create(fmt.Sprintf("%d_%d", key[0], key[1]))
		require.NoError(t, err)
		_, err = w.Write(payload[:])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	f, err := os.CreateTemp(t.TempDir(), "collision-*.zip")
	require.NoError(t, err)
	_, err = f.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, f.Close())

	archive, err := OpenArchive(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func setBit(p *regionPayload, tileX, tileY int, plane int8, f flag) {
	tileIndex := tileY*tilesPerSide + tileX
	bitIndex := tileIndex*bitsPerTile + int(f)
	byteIndex := int(plane)*bytesPerPlane + bitIndex/8
	bitInByte := uint(bitIndex % 8)
	p[byteIndex] |= 1 << bitInByte
}

func TestCanMoveNorthReadsPackedBit(t *testing.T) {
	archive := buildArchive(t, map[[2]int32]func(*regionPayload){
		{0, 0}: func(p *regionPayload) { setBit(p, 5, 5, 0, flagNorth) },
	})
	m := New(archive)
	assert.True(t, m.CanMoveNorth(5, 5, 0))
	assert.False(t, m.CanMoveEast(5, 5, 0))
	assert.False(t, m.CanMoveNorth(5, 5, 1)) // different plane, unset
}

func TestAbsentRegionIsBlocked(t *testing.T) {
	archive := buildArchive(t, map[[2]int32]func(*regionPayload){})
	m := New(archive)
	assert.False(t, m.CanMoveNorth(1, 1, 0))
	assert.False(t, m.CanMoveSouth(1, 1, 0))
}

func TestDiagonalCornerRuleBlocksCut(t *testing.T) {
	archive := buildArchive(t, map[[2]int32]func(*regionPayload){
		{0, 0}: func(p *regionPayload) {
			// Open the straight north/east edges out of (5,5) but leave the
			// bordering tiles' complementary edges closed, so the diagonal
			// NE step must stay blocked by the corner rule.
			setBit(p, 5, 5, 0, flagNorth)
			setBit(p, 5, 5, 0, flagEast)
		},
	})
	m := New(archive)
	assert.False(t, m.CanMove(5, 5, 0, NorthEast))
}

func TestDiagonalCornerRuleAllowsOpenCorner(t *testing.T) {
	archive := buildArchive(t, map[[2]int32]func(*regionPayload){
		{0, 0}: func(p *regionPayload) {
			setBit(p, 5, 5, 0, flagNorth)
			setBit(p, 5, 5, 0, flagEast)
			setBit(p, 5, 6, 0, flagEast)
			setBit(p, 6, 5, 0, flagNorth)
		},
	})
	m := New(archive)
	assert.True(t, m.CanMove(5, 5, 0, NorthEast))
}

func TestRegionCacheEvictsLRU(t *testing.T) {
	regions := map[[2]int32]func(*regionPayload){
		{0, 0}: nil,
		{1, 0}: nil,
		{2, 0}: nil,
	}
	archive := buildArchive(t, regions)
	m := NewWithCacheSize(archive, 2)

	// Touch region 0, then 1 — region 0 is now least-recently-used.
	m.region(0, 0)
	m.region(1, 0)
	// Touch region 2 — should evict region 0 (not 1, which was touched more
	// recently).
	m.region(2, 0)

	_, hit0 := m.cache.get(regionKey{0, 0})
	_, hit1 := m.cache.get(regionKey{1, 0})
	assert.False(t, hit0)
	assert.True(t, hit1)
}

func TestNeighborsFiltersBlockedDirections(t *testing.T) {
	archive := buildArchive(t, map[[2]int32]func(*regionPayload){
		{0, 0}: func(p *regionPayload) { setBit(p, 5, 5, 0, flagNorth) },
	})
	m := New(archive)
	neighbors := m.Neighbors(geometry.WorldCoord{X: 5, Y: 5, Plane: 0})
	require.Len(t, neighbors, 1)
	assert.Equal(t, int32(5), neighbors[0].X)
	assert.Equal(t, int32(6), neighbors[0].Y)
}
