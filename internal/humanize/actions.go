package humanize

import (
	"context"
	"fmt"
	"time"

	"github.com/flyff-runtime/botcore/internal/logging"
)

// microActionKind enumerates the four idle micro-actions (spec.md §4.8).
type microActionKind int

const (
	microHover microActionKind = iota
	microStatsGlance
	microCameraRotation
	microHoverAndWait
)

// RunIdleMicroAction executes a uniformly-chosen idle micro-action: a
// random mouse hover, a brief stats-tab glance (F1 then F4), a random
// camera-rotation drag, or a random hover-and-wait.
func (h *Humanizer) RunIdleMicroAction() {
	kind := microActionKind(h.rng.Intn(4))
	switch kind {
	case microHover:
		p := h.gameArea.RandomInterior(h.rng)
		h.input.MoveTo(p.X, p.Y, 300*time.Millisecond, 0.4)
	case microStatsGlance:
		h.input.Tap("f1", 0)
		time.Sleep(h.randBetween(400*time.Millisecond, 900*time.Millisecond))
		h.input.Tap("f4", 0)
	case microCameraRotation:
		start := h.gameArea.Center()
		target := h.gameArea.RandomInterior(h.rng)
		h.input.MoveTo(start.X, start.Y, 150*time.Millisecond, 0.3)
		h.input.DragMiddle(target.X, target.Y, 300*time.Millisecond, 0.4)
	case microHoverAndWait:
		p := h.gameArea.RandomInterior(h.rng)
		h.input.MoveTo(p.X, p.Y, 250*time.Millisecond, 0.35)
		time.Sleep(h.randBetween(1*time.Second, 4*time.Second))
	}
	logging.Debug("humanize: idle micro-action", "kind", int(kind))
}

// ExecuteIdleBreak runs the idle-break body (spec.md §4.8): for the break's
// duration, fire an idle micro-action with 30% per-cycle probability at
// 10-30s spacing. On completion, fatigue is reset.
func (h *Humanizer) ExecuteIdleBreak(ctx context.Context, pb PendingBreak) {
	deadline := time.Now().Add(pb.Duration)
	for time.Now().Before(deadline) {
		if contextDone(ctx) {
			return
		}
		if h.rng.Float64() < 0.30 {
			h.RunIdleMicroAction()
		}
		time.Sleep(h.randBetween(10*time.Second, 30*time.Second))
	}
	h.ResetFatigue()
	logging.Info("humanize: idle break complete")
}

// ExecuteLogoutBreak runs the logout-break body (spec.md §4.8): logout,
// sleep the duration, then attempt login up to 3 times with 5-10s spacing.
// Returns an error if every login attempt fails, signaling the caller to
// raise a fatal error and trigger emergency shutdown.
func (h *Humanizer) ExecuteLogoutBreak(ctx context.Context, pb PendingBreak, logout, login func(ctx context.Context) bool) error {
	if !logout(ctx) {
		logging.Warn("humanize: logout action did not confirm, continuing break anyway")
	}
	time.Sleep(pb.Duration)

	const maxLoginAttempts = 3
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		if contextDone(ctx) {
			return fmt.Errorf("humanize: context canceled during login attempts")
		}
		if login(ctx) {
			h.ResetFatigue()
			logging.Info("humanize: logout break complete, login succeeded", "attempt", attempt)
			return nil
		}
		if attempt < maxLoginAttempts {
			time.Sleep(h.randBetween(5*time.Second, 10*time.Second))
		}
	}
	return fmt.Errorf("humanize: login failed after %d attempts", maxLoginAttempts)
}
