package botcore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/flyff-runtime/botcore/internal/fsm"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/interact"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

// nearBankTiles is how close the player must be to the bank path's final
// tile to be considered "near bank" (spec.md §4.10 Banking procedure step 2).
const nearBankTiles = 5

// equipmentSlotIndex maps the slot names a Policy uses (spec.md §3:
// "Head, Cape, Neck, Weapon, Body, Shield, Legs, Hands, Feet, Ring, Ammo")
// to their 0..10 telemetry slot index.
var equipmentSlotIndex = map[string]int{
	"head": 0, "cape": 1, "neck": 2, "weapon": 3, "body": 4,
	"shield": 5, "legs": 6, "hands": 7, "feet": 8, "ring": 9, "ammo": 10,
}

const eatUpHealthPercent = 90

// RunBanking runs the banking procedure (spec.md §4.10 "Banking
// procedure"). It transitions through WALKING/BANKING itself and returns
// once the procedure either completes or needs to be retried next cycle.
func (b *Bot) RunBanking(ctx context.Context) bool {
	widgets, ok := b.Telemetry.Widgets(ctx)
	if ok && widgets.IsBankOpen {
		b.Machine.Transition(fsm.Banking)
		b.reconcileAtBank(ctx)
		b.closeInterface(ctx)
		return true
	}

	coords, ok := b.Telemetry.Coords(ctx)
	if !ok {
		return false
	}
	if b.nearBank(coords) {
		b.Machine.Transition(fsm.Walking)
		entity, found := b.Interactor.Find(ctx, b.Policy.BankObjectIDs(), interact.KindObject, coords.WorldCoord())
		if !found {
			return false
		}
		return b.Interactor.Click(ctx, entity, "Bank")
	}

	b.Machine.Transition(fsm.Walking)
	for _, wp := range b.Policy.BankPath() {
		if !b.Navigator.WalkTo(ctx, wp, true) {
			return false
		}
	}
	return true
}

func (b *Bot) nearBank(coords telemetry.Coords) bool {
	path := b.Policy.BankPath()
	if len(path) == 0 {
		return false
	}
	dest := path[len(path)-1]
	return coords.WorldCoord().DistanceTiles(dest) <= nearBankTiles
}

// reconcileAtBank runs step 1 of the banking procedure: deposit all,
// reconcile equipment, reconcile inventory, eat up, close interface.
func (b *Bot) reconcileAtBank(ctx context.Context) {
	b.depositAll(ctx)
	b.reconcileEquipment(ctx)
	b.reconcileInventory(ctx)
	b.eatUpTo(ctx, eatUpHealthPercent)
}

func (b *Bot) depositAll(ctx context.Context) {
	b.clickBankAction(ctx, "Deposit inventory")
}

// reconcileEquipment withdraws and equips any item missing from its
// configured slot.
func (b *Bot) reconcileEquipment(ctx context.Context) {
	equip, ok := b.Telemetry.Equipment(ctx)
	if !ok {
		return
	}
	bySlot := make(map[int]int, len(equip))
	for _, item := range equip {
		bySlot[item.Slot] = item.ID
	}
	for slotName, requiredID := range b.Policy.EquipmentSlots() {
		idx, known := equipmentSlotIndex[strings.ToLower(slotName)]
		if !known || bySlot[idx] == requiredID {
			continue
		}
		if b.withdrawItem(ctx, requiredID, "1") {
			b.equipLastWithdrawn(ctx, requiredID)
		}
	}
}

// reconcileInventory deposits everything then withdraws each required
// item to its target quantity in batches of 10/5/1, or "All" when
// configured with a negative target.
func (b *Bot) reconcileInventory(ctx context.Context) {
	b.depositAll(ctx)
	for idStr, want := range b.Policy.InventoryTargets() {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		if want < 0 {
			b.withdrawItem(ctx, id, "All")
			continue
		}
		remaining := want
		for _, batch := range []int{10, 5, 1} {
			for remaining >= batch {
				if !b.withdrawItem(ctx, id, strconv.Itoa(batch)) {
					return
				}
				remaining -= batch
			}
		}
	}
}

// eatUpTo repeatedly withdraws and eats food until health is at or above
// target percent, or no more food is available in the bank.
func (b *Bot) eatUpTo(ctx context.Context, targetPercent int) {
	for i := 0; i < b.Policy.MinFoodCount()+8; i++ {
		player, ok := b.Telemetry.Player(ctx)
		if !ok || int(player.HealthPercent()) >= targetPercent {
			return
		}
		if b.eatIfBelow(ctx, targetPercent+1) {
			continue
		}
		withdrew := false
		for _, id := range b.Policy.FoodIDs() {
			if b.withdrawItem(ctx, id, "1") {
				withdrew = true
				break
			}
		}
		if !withdrew {
			return
		}
	}
}

// withdrawItem withdraws quantity (a literal count, or "All") of itemID
// from the open bank interface by right-clicking its widget box and
// selecting the matching menu entry.
func (b *Bot) withdrawItem(ctx context.Context, itemID int, quantity string) bool {
	bankItems, ok := b.Telemetry.Bank(ctx)
	if !ok {
		return false
	}
	for _, item := range bankItems {
		if item.ID != itemID || item.Widget == nil {
			continue
		}
		point := item.Widget.RandomInterior(b.rng)
		b.Input.MoveTo(point.X, point.Y, 150*time.Millisecond, 0.3)
		b.Input.Click(input.ButtonRight)
		time.Sleep(100 * time.Millisecond)

		menu, ok := b.Telemetry.Menu(ctx)
		if !ok || !menu.IsOpen {
			return false
		}
		wanted := "withdraw-" + strings.ToLower(quantity)
		for i, entry := range menu.Entries {
			if strings.Contains(strings.ToLower(entry.Option), wanted) {
				bounds := menu.EntryBounds(i)
				target := bounds.RandomInterior(b.rng)
				b.Input.MoveTo(target.X, target.Y, 120*time.Millisecond, 0.3)
				b.Input.Click(input.ButtonLeft)
				return true
			}
		}
		return false
	}
	return false
}

// equipLastWithdrawn equips itemID from the inventory, assuming a
// withdrawItem call just placed it there.
func (b *Bot) equipLastWithdrawn(ctx context.Context, itemID int) {
	inv, ok := b.Telemetry.Inventory(ctx)
	if !ok {
		return
	}
	for _, item := range inv {
		if item.ID != itemID {
			continue
		}
		point := slotScreenPoint(b.InventoryPanel, item.Slot, b.rng)
		b.Input.MoveTo(point.X, point.Y, 150*time.Millisecond, 0.3)
		b.Input.Click(input.ButtonRight)
		time.Sleep(100 * time.Millisecond)
		menu, ok := b.Telemetry.Menu(ctx)
		if !ok || !menu.IsOpen {
			return
		}
		for i, entry := range menu.Entries {
			if strings.EqualFold(entry.Option, "Wear") || strings.EqualFold(entry.Option, "Wield") || strings.EqualFold(entry.Option, "Equip") {
				bounds := menu.EntryBounds(i)
				target := bounds.RandomInterior(b.rng)
				b.Input.MoveTo(target.X, target.Y, 120*time.Millisecond, 0.3)
				b.Input.Click(input.ButtonLeft)
				return
			}
		}
	}
}

// clickBankAction clicks a top-level bank interface action (e.g. "Deposit
// inventory") using whatever top menu entry matches, falling back to a
// plain left-click if the action is the default handler for the bank
// widget itself.
func (b *Bot) clickBankAction(ctx context.Context, action string) {
	menu, ok := b.Telemetry.Menu(ctx)
	if !ok || !menu.IsOpen {
		logging.Debug("botcore: bank action unavailable", "action", action)
		return
	}
	for i, entry := range menu.Entries {
		if strings.Contains(strings.ToLower(entry.Option), strings.ToLower(action)) {
			bounds := menu.EntryBounds(i)
			target := bounds.RandomInterior(b.rng)
			b.Input.MoveTo(target.X, target.Y, 150*time.Millisecond, 0.3)
			b.Input.Click(input.ButtonLeft)
			return
		}
	}
}

func (b *Bot) closeInterface(ctx context.Context) {
	widgets, ok := b.Telemetry.Widgets(ctx)
	if ok && !widgets.IsBankOpen {
		return
	}
	b.Input.Tap("escape", 50*time.Millisecond)
}
