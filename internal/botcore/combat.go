package botcore

import (
	"context"
	"time"

	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/interact"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

const (
	lootWaitDuration = 2500 * time.Millisecond
	lootPollInterval = 300 * time.Millisecond
	lootRadiusTiles  = 3
	combatMonitorPoll = 600 * time.Millisecond
)

// RunCombatCycle runs one iteration of the combat loop (spec.md §4.10).
func (b *Bot) RunCombatCycle(ctx context.Context, logout, login func(ctx context.Context) bool) bool {
	if b.checkAndHandleScheduledBreak(ctx, logout, login) {
		return true
	}

	// 1. Check death.
	player, ok := b.Telemetry.Player(ctx)
	if !ok {
		logging.Warn("botcore: combat: player telemetry unavailable")
		return false
	}
	if player.IsDead() {
		logging.Info("botcore: player died, logging out")
		logout(ctx)
		b.Machine.Transition(fsm.Stopping)
		return false
	}

	// 2. Check escape threshold.
	if int(player.HealthPercent()) < b.Policy.EscapeHealthThreshold() {
		b.escape(ctx, logout)
		return true
	}

	// 3. Monitor existing engagement.
	combat, ok := b.Telemetry.Combat(ctx)
	if ok && combat.InCombat && combat.Target != nil {
		b.monitorEngagement(ctx, combat)
		return true
	}

	// 4. Return to bank if food is low or inventory is full.
	inv, full, ok := b.inventorySnapshot(ctx)
	if ok {
		foodCount := countMatching(inv, b.Policy.FoodIDs())
		if foodCount < b.Policy.MinFoodCount() || full {
			b.Machine.Transition(fsm.Banking)
			return true
		}
	}

	// 5. Find and engage a target.
	coords, ok := b.Telemetry.Coords(ctx)
	if !ok {
		return false
	}
	target, found := b.findEngageableTarget(ctx, coords.WorldCoord())
	if !found {
		logging.Debug("botcore: combat: no target found")
		return false
	}
	if !b.Interactor.Click(ctx, target, "Attack") {
		return false
	}
	b.Machine.Transition(fsm.Combat)
	return true
}

// findEngageableTarget locates a target NPC that is not already
// interactingWith another player (spec.md §4.10 step 5).
func (b *Bot) findEngageableTarget(ctx context.Context, playerWorld geometry.WorldCoord) (interact.Entity, bool) {
	npcs, ok := b.Telemetry.NpcsInViewport(ctx)
	if !ok {
		return b.Interactor.Find(ctx, b.Policy.TargetIDs(), interact.KindNPC, playerWorld)
	}
	targetSet := make(map[int]bool, len(b.Policy.TargetIDs()))
	for _, id := range b.Policy.TargetIDs() {
		targetSet[id] = true
	}
	var freeIDs []int
	claimed := make(map[int]bool)
	for _, n := range npcs {
		if !targetSet[n.ID] {
			continue
		}
		if n.InteractingWith != nil {
			claimed[n.ID] = true
		}
	}
	for id := range targetSet {
		if !claimed[id] {
			freeIDs = append(freeIDs, id)
		}
	}
	if len(freeIDs) == 0 {
		return interact.Entity{}, false
	}
	return b.Interactor.Find(ctx, freeIDs, interact.KindNPC, playerWorld)
}

// monitorEngagement waits for the current target to die or change,
// eating when health drops below threshold, then loots.
func (b *Bot) monitorEngagement(ctx context.Context, combat telemetry.Combat) {
	startTarget := combat.Target
	corpsePos := geometry.WorldCoord{X: int32(startTarget.Position.X), Y: int32(startTarget.Position.Y), Plane: int8(startTarget.Position.Plane)}

	for {
		b.eatIfBelow(ctx, b.Policy.FoodThreshold())

		current, ok := b.Telemetry.Combat(ctx)
		if !ok {
			return
		}
		if current.Target == nil || current.Target.IsDying {
			break
		}
		if current.Target.Position.X != startTarget.Position.X || current.Target.Position.Y != startTarget.Position.Y {
			// Target changed mid-fight: treat as a new kill boundary.
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(combatMonitorPoll):
		}
	}

	b.recordKill()
	b.lootCorpse(ctx, corpsePos)
}

// lootCorpse polls ground items at the corpse tile (radius 3) for up to
// lootWaitDuration, picking up anything on the policy's loot list.
func (b *Bot) lootCorpse(ctx context.Context, corpsePos geometry.WorldCoord) {
	deadline := time.Now().Add(lootWaitDuration)
	lootSet := make(map[int]bool, len(b.Policy.LootIDs()))
	for _, id := range b.Policy.LootIDs() {
		lootSet[id] = true
	}

	for time.Now().Before(deadline) {
		items, ok := b.Telemetry.GroundItems(ctx, int(corpsePos.X), int(corpsePos.Y), int(corpsePos.Plane), lootRadiusTiles)
		if ok {
			for _, item := range items {
				if !lootSet[item.ID] {
					continue
				}
				b.pickUpGroundItem(ctx, item)
				if b.Policy.HandleSpecialLoot(ctx, item.ID) {
					logging.Debug("botcore: special loot handler ran", "itemId", item.ID)
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(lootPollInterval):
		}
	}
}

func (b *Bot) pickUpGroundItem(ctx context.Context, item telemetry.GroundItem) {
	entity := interact.Entity{ID: item.ID, World: item.WorldCoord()}
	b.Interactor.Click(ctx, entity, "Take")
}

// escape runs the emergency-escape behavior (spec.md §8 scenario 5):
// click a configured teleport item if present, else logout, then navigate
// to the bank and transition RECOVERING -> BANKING.
func (b *Bot) escape(ctx context.Context, logout func(ctx context.Context) bool) {
	b.Machine.Transition(fsm.Recovering)
	id, action, configured := b.Policy.TeleportItem()
	if configured {
		inv, ok := b.Telemetry.Inventory(ctx)
		if ok {
			for _, item := range inv {
				if item.ID == id {
					point := slotScreenPoint(b.InventoryPanel, item.Slot, b.rng)
					b.Input.MoveTo(point.X, point.Y, 150*time.Millisecond, 0.3)
					b.Input.Click(input.ButtonRight)
					time.Sleep(100 * time.Millisecond)
					menu, ok := b.Telemetry.Menu(ctx)
					if ok && menu.IsOpen {
						for i, entry := range menu.Entries {
							if entry.Option == action {
								bounds := menu.EntryBounds(i)
								target := bounds.RandomInterior(b.rng)
								b.Input.MoveTo(target.X, target.Y, 120*time.Millisecond, 0.3)
								b.Input.Click(input.ButtonLeft)
							}
						}
					}
					break
				}
			}
		}
	} else {
		logout(ctx)
	}
	b.recordEscape()
	for _, wp := range b.Policy.BankPath() {
		if !b.Navigator.WalkTo(ctx, wp, true) {
			break
		}
	}
	b.Machine.Transition(fsm.Banking)
}
