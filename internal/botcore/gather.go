package botcore

import (
	"context"
	"time"

	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/interact"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

const (
	moveStartTimeout = 3 * time.Second
	respawnTimeout   = 15 * time.Second
	respawnPoll      = 500 * time.Millisecond
)

// RunGatherCycle runs one iteration of the gathering loop (spec.md §4.10).
// logout/login are forwarded to a break if one is due. Returns false when
// the cycle could not make progress (no resource found, telemetry
// unavailable) so the caller's error handler can classify the failure.
func (b *Bot) RunGatherCycle(ctx context.Context, logout, login func(ctx context.Context) bool) bool {
	// 1. Check-and-handle scheduled break.
	if b.checkAndHandleScheduledBreak(ctx, logout, login) {
		return true
	}

	// 2. Refresh inventory snapshot.
	inv, full, ok := b.inventorySnapshot(ctx)
	if !ok {
		logging.Warn("botcore: gather: inventory unavailable")
		return false
	}
	if full {
		if b.Policy.BankingEnabled() {
			b.Machine.Transition(fsm.Banking)
			return true
		}
		if b.Policy.PowerDropEnabled() {
			b.powerDrop(ctx, inv)
			return true
		}
	}

	// 3. Update XP tracker (optional).
	if b.XPTracker != nil {
		if stats, ok := b.Telemetry.Stats(ctx); ok {
			b.XPTracker.Update(ctx, stats)
		}
	}

	// 4. Reaction delay.
	time.Sleep(b.Humanizer.ReactionDelay())

	// 5. Locate resource via Entity Interactor.
	coords, ok := b.Telemetry.Coords(ctx)
	if !ok {
		logging.Warn("botcore: gather: coords unavailable")
		return false
	}
	entity, found := b.Interactor.Find(ctx, b.Policy.ResourceIDs(), interact.KindObject, coords.WorldCoord())
	if !found {
		logging.Debug("botcore: gather: no resource in range")
		return false
	}

	// 6. Click with the configured gather action.
	if !b.Interactor.Click(ctx, entity, b.Policy.GatherAction()) {
		return false
	}

	// 7. Wait for interaction start, then for it to stop.
	b.waitForMovementStop(ctx)

	// 8. Respawn detector: depleted when animation stops or the node's
	// object disappears, bounded by respawnTimeout.
	b.waitForDepletion(ctx, entity.ID, entity.World)
	b.recordResource()

	// 9. Fatigued post-action delay plus humanization interleaving.
	time.Sleep(b.Humanizer.PostActionDelay(500 * time.Millisecond))
	if b.Humanizer.IdleMicroActionDue() {
		b.Humanizer.RunIdleMicroAction()
	}
	b.maybeTabSwitch()
	b.maybeAttentionShift(ctx)
	return true
}

// waitForMovementStop waits for the player to start moving (interaction
// begun), then waits for movement to stop, bounded by moveStartTimeout. If
// movement never starts, it falls through per spec.md §4.10 step 7.
func (b *Bot) waitForMovementStop(ctx context.Context) {
	deadline := time.Now().Add(moveStartTimeout)
	started := false
	for time.Now().Before(deadline) {
		anim, ok := b.Telemetry.Animation(ctx)
		if ok && anim.IsMoving {
			started = true
		}
		if started && ok && !anim.IsMoving {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(respawnPoll):
		}
	}
}

// waitForDepletion polls the player's animation and the target object's
// continued presence at worldPos, bounded by respawnTimeout (spec.md
// §4.10 step 8).
func (b *Bot) waitForDepletion(ctx context.Context, objectID int, worldPos geometry.WorldCoord) {
	deadline := time.Now().Add(respawnTimeout)
	for time.Now().Before(deadline) {
		anim, animOK := b.Telemetry.Animation(ctx)
		if animOK && !anim.IsAnimating {
			return
		}
		objects, objOK := b.Telemetry.Objects(ctx)
		if objOK && !objectPresentAt(objects, objectID, worldPos) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(respawnPoll):
		}
	}
	logging.Debug("botcore: gather: respawn timeout reached", "objectId", objectID)
}

func objectPresentAt(objects []telemetry.ObjectSnapshot, id int, at geometry.WorldCoord) bool {
	for _, o := range objects {
		if o.ID == id && o.WorldCoord().Equal(at) {
			return true
		}
	}
	return false
}
