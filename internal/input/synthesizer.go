// Package input implements the humanized OS-level mouse/keyboard
// synthesizer (spec.md §4.2). All motion is driven through a cubic Bézier
// path with randomized control-point perpendicular offsets and an
// ease-in-out-quad timing curve, so consecutive moves never look like a
// teleport-and-click.
//
// The OS mouse/keyboard primitives themselves are the external
// collaborator spec.md §6 names; robotgo is the concrete adapter, carried
// forward as a direct go.mod dependency (see DESIGN.md).
package input

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/flyff-runtime/botcore/internal/logging"
)

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

func (b Button) robotgoName() string {
	switch b {
	case ButtonMiddle:
		return "center"
	case ButtonRight:
		return "right"
	default:
		return "left"
	}
}

// Synthesizer drives humanized mouse and keyboard input (spec.md §4.2).
// It holds no game-specific state; callers supply absolute screen
// coordinates already clamped to the area they intend to click within.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer builds a Synthesizer with its own random source, so
// multiple bot instances in one process don't share jitter sequences.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// MoveTo moves the mouse from its current position to (x, y) along a cubic
// Bézier path with two randomized perpendicular control offsets scaled by
// curveIntensity, stepping at max(10, duration*60) points with ease-in-
// out-quad timing and ±20% per-step delay jitter (spec.md §4.2).
func (s *Synthesizer) MoveTo(x, y int, duration time.Duration, curveIntensity float64) {
	startX, startY := robotgo.Location()
	steps := int(math.Max(10, duration.Seconds()*60))

	p0 := point{float64(startX), float64(startY)}
	p3 := point{float64(x), float64(y)}
	p1, p2 := s.controlPoints(p0, p3, curveIntensity)

	perStep := duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		eased := easeInOutQuad(t)
		p := cubicBezier(p0, p1, p2, p3, eased)
		robotgo.Move(int(p.x), int(p.y))

		jitter := 1 + (s.rng.Float64()*0.4 - 0.2) // +/-20%
		delay := time.Duration(float64(perStep) * jitter)
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	logging.Debug("input: moveTo", "x", x, "y", y, "duration", duration, "curve", curveIntensity)
}

type point struct{ x, y float64 }

// controlPoints picks two Bézier control points along the straight line
// from p0 to p3, each displaced perpendicular to that line by a random
// amount scaled by curveIntensity — the "humanized wobble."
func (s *Synthesizer) controlPoints(p0, p3 point, curveIntensity float64) (point, point) {
	dx, dy := p3.x-p0.x, p3.y-p0.y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p0, p3
	}
	// unit perpendicular
	perpX, perpY := -dy/length, dx/length

	maxOffset := length * 0.25 * curveIntensity
	off1 := (s.rng.Float64()*2 - 1) * maxOffset
	off2 := (s.rng.Float64()*2 - 1) * maxOffset

	p1 := point{
		x: p0.x + dx*0.33 + perpX*off1,
		y: p0.y + dy*0.33 + perpY*off1,
	}
	p2 := point{
		x: p0.x + dx*0.66 + perpX*off2,
		y: p0.y + dy*0.66 + perpY*off2,
	}
	return p1, p2
}

func cubicBezier(p0, p1, p2, p3 point, t float64) point {
	u := 1 - t
	x := u*u*u*p0.x + 3*u*u*t*p1.x + 3*u*t*t*p2.x + t*t*t*p3.x
	y := u*u*u*p0.y + 3*u*u*t*p1.y + 3*u*t*t*p2.y + t*t*t*p3.y
	return point{x, y}
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// Click issues a mouse click at the current cursor position with a 50-150ms
// pre-delay and a 50-120ms down-hold jitter (spec.md §4.2).
func (s *Synthesizer) Click(button Button) {
	preDelay := randDuration(s.rng, 50, 150)
	time.Sleep(preDelay)

	hold := randDuration(s.rng, 50, 120)
	robotgo.Toggle(button.robotgoName(), "down")
	time.Sleep(hold)
	robotgo.Toggle(button.robotgoName(), "up")

	logging.Debug("input: click", "button", button, "predelay", preDelay, "hold", hold)
}

// ClickAt moves to (x, y) then clicks, combining MoveTo and Click.
func (s *Synthesizer) ClickAt(x, y int, button Button, duration time.Duration, curveIntensity float64) {
	s.MoveTo(x, y, duration, curveIntensity)
	s.Click(button)
}

// DragMiddle presses the middle mouse button, performs a humanized MoveTo
// to (targetX, targetY), then releases — used by the camera controller for
// yaw/pitch drags (spec.md §4.2, §4.6).
func (s *Synthesizer) DragMiddle(targetX, targetY int, duration time.Duration, curveIntensity float64) {
	robotgo.Toggle("center", "down")
	s.MoveTo(targetX, targetY, duration, curveIntensity)
	robotgo.Toggle("center", "up")
	logging.Debug("input: dragMiddle", "targetX", targetX, "targetY", targetY)
}

// ScrollWheel scrolls by delta (positive = zoom in, per spec.md §4.3),
// split into 3-5 chunks with inter-chunk jitter over duration.
func (s *Synthesizer) ScrollWheel(delta int, duration time.Duration) {
	chunks := 3 + s.rng.Intn(3) // 3..5
	remaining := delta
	perChunk := delta / chunks
	if perChunk == 0 {
		perChunk = sign(delta)
	}
	interChunk := duration / time.Duration(chunks)

	for i := 0; i < chunks; i++ {
		amount := perChunk
		if i == chunks-1 {
			amount = remaining
		}
		if amount != 0 {
			robotgo.Scroll(0, amount)
		}
		remaining -= amount
		jitter := 1 + (s.rng.Float64()*0.3 - 0.15)
		time.Sleep(time.Duration(float64(interChunk) * jitter))
	}
	logging.Debug("input: scrollWheel", "delta", delta, "duration", duration)
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

// Tap presses and releases a key, optionally holding it for holdTime before
// release (spec.md §4.2).
func (s *Synthesizer) Tap(key string, holdTime time.Duration) {
	robotgo.KeyDown(key)
	if holdTime > 0 {
		time.Sleep(holdTime)
	} else {
		time.Sleep(randDuration(s.rng, 30, 90))
	}
	robotgo.KeyUp(key)
	logging.Debug("input: tap", "key", key, "hold", holdTime)
}

// Hotkey presses a key combination, e.g. Hotkey("ctrl", "alt", "w").
func (s *Synthesizer) Hotkey(keys ...string) {
	if len(keys) == 0 {
		return
	}
	robotgo.KeyTap(keys[len(keys)-1], keys[:len(keys)-1])
	logging.Debug("input: hotkey", "keys", keys)
}

// TypeText types s one character at a time with a per-character delay
// uniformly sampled from [minDelay, maxDelay] (spec.md §4.2).
func (s *Synthesizer) TypeText(text string, minDelay, maxDelay time.Duration) {
	for _, r := range text {
		robotgo.TypeStr(string(r))
		delay := minDelay
		if maxDelay > minDelay {
			delay = minDelay + time.Duration(s.rng.Int63n(int64(maxDelay-minDelay)))
		}
		time.Sleep(delay)
	}
	logging.Debug("input: typeText", "length", len(text))
}

func randDuration(rng *rand.Rand, minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(minMs+rng.Intn(maxMs-minMs)) * time.Millisecond
}
