// Package camera implements the closed-loop viewport rotation controller
// (spec.md §4.6): repeatedly samples the telemetry rotation-feedback
// endpoint and drags the middle mouse button until a target WorldCoord is
// visible, or gives up. Grounded on movement.go's
// RandomCameraMovement/MovementCoordinator method shapes, retargeted from
// JS-injected drags to input.Synthesizer + telemetry feedback.
package camera

import (
	"context"
	"math/rand"
	"time"

	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

const (
	maxAttempts       = 5
	scaleTooZoomedIn  = 330
	scaleTargetMin    = 305
	scaleTargetMax    = 325
	scaleDragMaxUnits = 600
	stuckLimit        = 3
	dragSettleMin     = 400 * time.Millisecond
	dragSettleMax     = 600 * time.Millisecond
	largeDragPixels   = 200
)

// GameArea is the screen rectangle drags and scrolls must stay within.
type GameArea = geometry.Bounds

// Controller rotates and zooms the camera to bring a WorldCoord into view.
type Controller struct {
	telemetry *telemetry.Client
	input     *input.Synthesizer
	rng       *rand.Rand
	gameArea  GameArea
}

// New builds a Controller. gameArea bounds where drag segment origins and
// scroll positions may land.
func New(client *telemetry.Client, synth *input.Synthesizer, gameArea GameArea) *Controller {
	return &Controller{
		telemetry: client,
		input:     synth,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		gameArea:  gameArea,
	}
}

// RotateTo brings (x,y,plane) into view, performing a zoom pre-step if the
// camera is too zoomed in, then up to maxAttempts rotation-drag iterations.
// Returns false if the target is not visible after attempts are exhausted.
func (c *Controller) RotateTo(ctx context.Context, x, y, plane int) bool {
	feedback, ok := c.telemetry.CameraRotationTo(ctx, x, y, plane)
	if !ok {
		logging.Warn("camera: rotation feedback unavailable")
		return false
	}
	if feedback.Visible {
		return true
	}

	if feedback.CurrentScale >= scaleTooZoomedIn {
		c.zoomOut(ctx, feedback.CurrentScale)
		feedback, ok = c.telemetry.CameraRotationTo(ctx, x, y, plane)
		if !ok {
			return false
		}
		if feedback.Visible {
			return true
		}
	}

	return c.rotationLoop(ctx, x, y, plane, feedback)
}

func (c *Controller) zoomOut(ctx context.Context, currentScale int) {
	target := scaleTargetMin + c.rng.Intn(scaleTargetMax-scaleTargetMin+1)
	delta := float64(target-currentScale) * 50
	jitter := 1 + (c.rng.Float64()*0.2 - 0.1)
	delta *= jitter
	if delta > scaleDragMaxUnits {
		delta = scaleDragMaxUnits
	} else if delta < -scaleDragMaxUnits {
		delta = -scaleDragMaxUnits
	}

	center := c.gameArea.Center()
	c.input.MoveTo(center.X, center.Y, 150*time.Millisecond, 0.3)

	for attempt := 0; attempt < 3; attempt++ {
		c.input.ScrollWheel(int(delta), 300*time.Millisecond)
		time.Sleep(randDuration(c.rng, 1200, 1800))
		scale, ok := c.telemetry.Camera(ctx)
		if ok && scale.Scale < scaleTooZoomedIn {
			return
		}
		if attempt == 2 {
			return
		}
	}
}

func (c *Controller) rotationLoop(ctx context.Context, x, y, plane int, feedback telemetry.RotationFeedback) bool {
	stuck := 0
	lastYaw, lastPitch := -1, -1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if feedback.Visible {
			return true
		}
		if abs(feedback.DragPixelsX) < 5 && abs(feedback.DragPixelsY) < 5 {
			// Empirical success threshold: the game considers a drag this
			// small a no-op, meaning rotation has converged.
			return true
		}
		if feedback.CurrentYaw == lastYaw && feedback.CurrentPitch == lastPitch {
			stuck++
			if stuck >= stuckLimit {
				logging.Warn("camera: rotation stuck", "attempt", attempt)
				return false
			}
		} else {
			stuck = 0
		}
		lastYaw, lastPitch = feedback.CurrentYaw, feedback.CurrentPitch

		c.dragCombined(feedback.DragPixelsX, feedback.DragPixelsY)
		time.Sleep(randDuration(c.rng, int(dragSettleMin.Milliseconds()), int(dragSettleMax.Milliseconds())))

		var ok bool
		feedback, ok = c.telemetry.CameraRotationTo(ctx, x, y, plane)
		if !ok {
			return false
		}
	}
	return feedback.Visible
}

// dragCombined performs a single diagonal MMB drag of (dx, dy) pixels with
// ±7% per-axis jitter, splitting drags over largeDragPixels into sequential
// segments each originating from a randomized point near the viewport
// center, clamped to the game area.
func (c *Controller) dragCombined(dx, dy int) {
	jdx := jitter(c.rng, dx, 0.07)
	jdy := jitter(c.rng, dy, 0.07)

	if abs(jdx) <= largeDragPixels && abs(jdy) <= largeDragPixels {
		c.dragSegment(jdx, jdy)
		return
	}

	segments := 2
	if abs(jdx) > 2*largeDragPixels || abs(jdy) > 2*largeDragPixels {
		segments = 3
	}
	segDx, segDy := jdx/segments, jdy/segments
	for i := 0; i < segments; i++ {
		c.dragSegment(segDx, segDy)
		time.Sleep(randDuration(c.rng, 100, 200))
	}
}

func (c *Controller) dragSegment(dx, dy int) {
	center := c.gameArea.Center()
	origin := geometry.Point{
		X: clamp(center.X+c.rng.Intn(41)-20, c.gameArea.X, c.gameArea.X+c.gameArea.W),
		Y: clamp(center.Y+c.rng.Intn(41)-20, c.gameArea.Y, c.gameArea.Y+c.gameArea.H),
	}
	c.input.MoveTo(origin.X, origin.Y, 150*time.Millisecond, 0.3)

	target := geometry.Point{
		X: clamp(origin.X+dx, c.gameArea.X, c.gameArea.X+c.gameArea.W),
		Y: clamp(origin.Y+dy, c.gameArea.Y, c.gameArea.Y+c.gameArea.H),
	}
	c.input.DragMiddle(target.X, target.Y, 250*time.Millisecond, 0.4)
}

func jitter(rng *rand.Rand, v int, pct float64) int {
	factor := 1 + (rng.Float64()*2*pct - pct)
	return int(float64(v) * factor)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func randDuration(rng *rand.Rand, minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(minMs+rng.Intn(maxMs-minMs)) * time.Millisecond
}
