package navigate

// CalibrationSample is one operator-measured walk: a known tile distance
// travelled and the pixel displacement observed on the minimap for it.
// Grounded on navigation.py's calibrate_minimap_scale sketch ("walk a known
// distance and measure pixels... pixel_distance / tile_distance"), which the
// original left as an unimplemented TODO; nothing in this tree's telemetry
// exposes the on-screen minimap marker position directly; so, as in the
// original's own sketch, the pixel displacement for each leg is supplied by
// whoever performed and measured the walk, and Calibrate only does the
// arithmetic.
type CalibrationSample struct {
	TileDistance  float64
	PixelDistance float64
}

// Calibrate derives Minimap.PxPerTile (spec.md §9) from two or more
// calibration samples by averaging each sample's pixels-per-tile ratio.
// Samples with a non-positive tile distance are ignored. Returns false if no
// sample is usable.
func Calibrate(samples ...CalibrationSample) (float64, bool) {
	var sum float64
	var count int
	for _, s := range samples {
		if s.TileDistance <= 0 {
			continue
		}
		sum += s.PixelDistance / s.TileDistance
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
