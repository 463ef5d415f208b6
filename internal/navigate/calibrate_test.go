package navigate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrateAveragesTwoSamples(t *testing.T) {
	ratio, ok := Calibrate(
		CalibrationSample{TileDistance: 10, PixelDistance: 38},
		CalibrationSample{TileDistance: 10, PixelDistance: 42},
	)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, ratio, 0.001)
}

func TestCalibrateIgnoresNonPositiveTileDistance(t *testing.T) {
	ratio, ok := Calibrate(
		CalibrationSample{TileDistance: 0, PixelDistance: 100},
		CalibrationSample{TileDistance: 5, PixelDistance: 20},
	)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, ratio, 0.001)
}

func TestCalibrateReturnsFalseWithNoUsableSample(t *testing.T) {
	_, ok := Calibrate(CalibrationSample{TileDistance: -1, PixelDistance: 10})
	assert.False(t, ok)
}
