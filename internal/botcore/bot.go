package botcore

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/flyff-runtime/botcore/internal/camera"
	"github.com/flyff-runtime/botcore/internal/errhandler"
	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/humanize"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/interact"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/navigate"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

// inventoryCapacity is the fixed inventory slot count (spec.md §3:
// "slot index 1..28").
const inventoryCapacity = 28

// XPTracker is the optional XP-tracking collaborator named in spec.md
// §4.10 gathering loop step 3. Implementations decide their own diffing
// and reporting; the core loop only calls Update once per cycle.
type XPTracker interface {
	Update(ctx context.Context, stats []telemetry.Stat)
}

// Counters is a point-in-time snapshot of the loop's session counters.
type Counters struct {
	Kills             int
	ResourcesGathered int
	EatenCount        int
	EscapeCount       int
	BreaksTaken       int
}

// Bot composes every subsystem into the generic combat and gathering
// loops (spec.md §4.10), parameterized by a Policy. Grounded on
// farming.go's Run()-per-cycle dispatch: update stats, check
// wait/break, dispatch to the current behavior.
type Bot struct {
	Telemetry  *telemetry.Client
	Interactor *interact.Interactor
	Navigator  *navigate.Navigator
	Camera     *camera.Controller
	Humanizer  *humanize.Humanizer
	Machine    *fsm.Machine
	Input      *input.Synthesizer
	Policy     Policy
	XPTracker  XPTracker // optional

	// Handler receives a Critical report when a logout break's login
	// retries are all exhausted (spec.md §7). Optional; nil disables the
	// escalation (callers that never wire one only lose that one report).
	Handler *errhandler.Handler

	// InventoryPanel is the fixed on-screen rectangle of the 4x7
	// inventory grid, used to click slots whose telemetry entry carries
	// no screen box (spec.md §6: only /bank entries do).
	InventoryPanel geometry.Bounds

	rng *rand.Rand

	mu            sync.Mutex
	counters      Counters
	lastTabSwitch time.Time
}

// New builds a Bot from its already-constructed subsystems.
func New(client *telemetry.Client, it *interact.Interactor, nav *navigate.Navigator, cam *camera.Controller, hum *humanize.Humanizer, machine *fsm.Machine, synth *input.Synthesizer, policy Policy, inventoryPanel geometry.Bounds) *Bot {
	return &Bot{
		Telemetry:      client,
		Interactor:     it,
		Navigator:      nav,
		Camera:         cam,
		Humanizer:      hum,
		Machine:        machine,
		Input:          synth,
		Policy:         policy,
		InventoryPanel: inventoryPanel,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		lastTabSwitch:  time.Now(),
	}
}

// slotScreenPoint computes a randomized interior point for the given
// 1-based inventory slot within the fixed 4x7 inventory panel.
func slotScreenPoint(panel geometry.Bounds, slot int, rng *rand.Rand) geometry.Point {
	idx := slot - 1
	if idx < 0 {
		idx = 0
	}
	const cols, rows = 4, 7
	cellW, cellH := panel.W/cols, panel.H/rows
	col, row := idx%cols, (idx/cols)%rows
	cell := geometry.Bounds{X: panel.X + col*cellW, Y: panel.Y + row*cellH, W: cellW, H: cellH}
	return cell.RandomInterior(rng)
}

// Counters returns a snapshot of the session counters.
func (b *Bot) Counters() Counters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}

func (b *Bot) recordKill()      { b.mu.Lock(); b.counters.Kills++; b.mu.Unlock() }
func (b *Bot) recordResource()  { b.mu.Lock(); b.counters.ResourcesGathered++; b.mu.Unlock() }
func (b *Bot) recordEaten()     { b.mu.Lock(); b.counters.EatenCount++; b.mu.Unlock() }
func (b *Bot) recordEscape()    { b.mu.Lock(); b.counters.EscapeCount++; b.mu.Unlock() }
func (b *Bot) recordBreakTaken(){ b.mu.Lock(); b.counters.BreaksTaken++; b.mu.Unlock() }

// checkAndHandleScheduledBreak is step 1 of both core loops (spec.md
// §4.10): poll the humanizer for a pending break and run it to
// completion if one is due. Returns true if a break was taken.
func (b *Bot) checkAndHandleScheduledBreak(ctx context.Context, logout, login func(ctx context.Context) bool) bool {
	pending, ok := b.Humanizer.PollPendingBreak()
	if !ok {
		return false
	}
	b.Machine.Transition(fsm.Break)
	switch pending.Kind {
	case humanize.LogoutBreak:
		if err := b.Humanizer.ExecuteLogoutBreak(ctx, pending, logout, login); err != nil {
			logging.Error("botcore: logout break failed", "error", err)
			if b.Handler != nil {
				b.Handler.Report(ctx, "logout-break-login", errhandler.Critical, "login failed after logout break", err)
			}
		}
	default:
		b.Humanizer.ExecuteIdleBreak(ctx, pending)
	}
	b.recordBreakTaken()
	b.Machine.Transition(fsm.Idle)
	return true
}

// inventorySnapshot returns the current inventory and whether it is full.
func (b *Bot) inventorySnapshot(ctx context.Context) ([]telemetry.ItemStack, bool, bool) {
	inv, ok := b.Telemetry.Inventory(ctx)
	if !ok {
		return nil, false, false
	}
	used := 0
	for _, item := range inv {
		if !item.Empty() {
			used++
		}
	}
	return inv, used >= inventoryCapacity, true
}

// powerDrop clicks "Drop" on every inventory item matching the policy's
// power-drop ids (spec.md §4.10 step 2).
func (b *Bot) powerDrop(ctx context.Context, inv []telemetry.ItemStack) {
	dropSet := make(map[int]bool, len(b.Policy.PowerDropIDs()))
	for _, id := range b.Policy.PowerDropIDs() {
		dropSet[id] = true
	}
	for _, item := range inv {
		if !dropSet[item.ID] {
			continue
		}
		point := slotScreenPoint(b.InventoryPanel, item.Slot, b.rng)
		b.Input.MoveTo(point.X, point.Y, 150*time.Millisecond, 0.3)
		b.Input.Click(input.ButtonRight)
		time.Sleep(80 * time.Millisecond)
		menu, ok := b.Telemetry.Menu(ctx)
		if !ok || !menu.IsOpen {
			continue
		}
		for i, entry := range menu.Entries {
			if strings.EqualFold(entry.Option, "Drop") {
				bounds := menu.EntryBounds(i)
				target := bounds.RandomInterior(b.rng)
				b.Input.MoveTo(target.X, target.Y, 120*time.Millisecond, 0.3)
				b.Input.Click(input.ButtonLeft)
				break
			}
		}
	}
}

func countMatching(inv []telemetry.ItemStack, ids []int) int {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	total := 0
	for _, item := range inv {
		if set[item.ID] {
			total += item.Quantity
		}
	}
	return total
}

// maybeAttentionShift runs the 5%-chance, 2-5s attention-shift pause
// named in spec.md §4.10 step 9.
func (b *Bot) maybeAttentionShift(ctx context.Context) {
	if b.rng.Float64() >= 0.05 {
		return
	}
	pause := time.Duration(2000+b.rng.Intn(3000)) * time.Millisecond
	logging.Debug("botcore: attention-shift pause", "duration", pause)
	select {
	case <-ctx.Done():
	case <-time.After(pause):
	}
}

// maybeTabSwitch runs the once-every-5-15-minutes tab switch named in
// spec.md §4.10 step 9, modeled as an alt-tab keyboard combination.
func (b *Bot) maybeTabSwitch() {
	b.mu.Lock()
	due := time.Since(b.lastTabSwitch) >= time.Duration(5+b.rng.Intn(11))*time.Minute
	if due {
		b.lastTabSwitch = time.Now()
	}
	b.mu.Unlock()
	if !due {
		return
	}
	logging.Debug("botcore: tab switch")
	b.Input.Hotkey("alt", "tab")
}

// eatIfBelow eats the first matching food id if the player's health
// percent is below threshold. Returns true if an eat occurred.
func (b *Bot) eatIfBelow(ctx context.Context, threshold int) bool {
	player, ok := b.Telemetry.Player(ctx)
	if !ok || player.HealthPercent() >= float64(threshold) {
		return false
	}
	inv, ok := b.Telemetry.Inventory(ctx)
	if !ok {
		return false
	}
	foodSet := make(map[int]bool, len(b.Policy.FoodIDs()))
	for _, id := range b.Policy.FoodIDs() {
		foodSet[id] = true
	}
	for _, item := range inv {
		if !foodSet[item.ID] {
			continue
		}
		point := slotScreenPoint(b.InventoryPanel, item.Slot, b.rng)
		b.Input.MoveTo(point.X, point.Y, 150*time.Millisecond, 0.3)
		b.Input.Click(input.ButtonLeft)
		b.recordEaten()
		return true
	}
	return false
}
