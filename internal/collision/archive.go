// Package collision implements the lazy-loaded, LRU-cached, bit-packed
// walkability grid described in spec.md §4.3 and §6. Regions are 64x64-tile
// blocks packed two bits per tile (can-walk-north, can-walk-east) across
// all four planes in one archive member, keyed "x_y".
package collision

import (
	"archive/zip"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	tilesPerSide    = 64
	planeCount      = 4
	bitsPerTile     = 2
	bytesPerPlane   = tilesPerSide * tilesPerSide * bitsPerTile / 8 // 1024
	bytesPerRegion  = bytesPerPlane * planeCount                    // 4096
)

// flag identifies one of the two walkability bits packed per tile.
type flag int

const (
	flagNorth flag = 0
	flagEast  flag = 1
)

// regionPayload is one archive member's raw bytes, one bytesPerPlane block
// per plane.
type regionPayload [bytesPerRegion]byte

// bit returns the walkability bit for (tileX, tileY, plane, flag): 1 = open.
func (p *regionPayload) bit(tileX, tileY int, plane int8, f flag) bool {
	tileIndex := tileY*tilesPerSide + tileX
	bitIndex := tileIndex*bitsPerTile + int(f)
	byteIndex := int(plane)*bytesPerPlane + bitIndex/8
	bitInByte := uint(bitIndex % 8)
	return p[byteIndex]&(1<<bitInByte) != 0
}

// Archive wraps the ZIP-packed collision dataset named in spec.md §6.
// Opening a nonexistent or corrupt archive is a fatal construction error
// (spec.md §4.3 "archive-not-found is fatal at construction"); the absence
// of any individual region within an otherwise-good archive is not — it is
// silently treated as fully blocked at query time.
type Archive struct {
	reader *zip.ReadCloser
}

// OpenArchive opens the ZIP file at path. Returns an error if the archive
// cannot be opened or is not a valid ZIP — this is the one fatal failure
// mode in the collision subsystem.
func OpenArchive(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("collision: open archive %s: %w", path, err)
	}
	return &Archive{reader: r}, nil
}

// Close releases the archive's file handle.
func (a *Archive) Close() error {
	return a.reader.Close()
}

// memberName builds the "x_y" archive member name for a region.
func memberName(regionX, regionY int32) string {
	return fmt.Sprintf("%d_%d", regionX, regionY)
}

// loadRegion reads and unpacks the named region's payload. Returns
// (nil, false) if the member does not exist in the archive — this is
// the non-fatal "runtime absence of a specific region" case (spec.md §4.3).
func (a *Archive) loadRegion(regionX, regionY int32) (*regionPayload, bool) {
	name := memberName(regionX, regionY)
	for _, f := range a.reader.File {
		if f.Name != name && !strings.EqualFold(f.Name, name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		defer rc.Close()

		var payload regionPayload
		n, err := io.ReadFull(rc, payload[:])
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, false
		}
		_ = n
		return &payload, true
	}
	return nil, false
}

// parseMemberName splits a "<regionX>_<regionY>" member name back into its
// region coordinates, the inverse of memberName.
func parseMemberName(name string) (x, y int32, ok bool) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	xi, err1 := strconv.ParseInt(parts[0], 10, 32)
	yi, err2 := strconv.ParseInt(parts[1], 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int32(xi), int32(yi), true
}
