package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEaseInOutQuadBounds(t *testing.T) {
	assert.Equal(t, 0.0, easeInOutQuad(0))
	assert.InDelta(t, 1.0, easeInOutQuad(1), 0.0001)
	assert.InDelta(t, 0.5, easeInOutQuad(0.5), 0.0001)
}

func TestCubicBezierEndpoints(t *testing.T) {
	p0 := point{0, 0}
	p1 := point{10, 20}
	p2 := point{20, -20}
	p3 := point{30, 0}

	start := cubicBezier(p0, p1, p2, p3, 0)
	end := cubicBezier(p0, p1, p2, p3, 1)
	assert.Equal(t, p0, start)
	assert.Equal(t, p3, end)
}

func TestSignHelper(t *testing.T) {
	assert.Equal(t, 1, sign(5))
	assert.Equal(t, -1, sign(-3))
	assert.Equal(t, 0, sign(0))
}
