// Package botcore implements the Bot Core Loops (spec.md §4.10): the
// gathering loop, combat loop, and banking procedure, composed from the
// Entity Interactor, Navigator, Camera Controller, Humanization Layer, and
// the state machine. Grounded on farming.go's Run()-per-cycle
// loop structure (update stats -> check wait -> dispatch state) and
// support.go's policy-driven follow/assist behavior for the Policy
// interface shape spec.md §9 calls for.
package botcore

import (
	"context"

	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/geometry"
)

// Policy supplies the per-bot tuning spec.md §9 calls for: target ids,
// loot list, food list, required equipment/inventory layout, paths to/from
// a work area, escape threshold, food threshold, minimum food count, and
// per-item special-loot handlers. Rendered as an interface (spec.md §9:
// "a tagged variant plus a vtable/interface") so a caller may supply a
// custom implementation instead of the config-file-backed DefaultPolicy.
type Policy interface {
	ResourceIDs() []int
	GatherAction() string
	TargetIDs() []int
	LootIDs() []int
	FoodIDs() []int
	FoodThreshold() int
	MinFoodCount() int
	EscapeHealthThreshold() int
	TeleportItem() (id int, action string, configured bool)
	EquipmentSlots() map[string]int
	InventoryTargets() map[string]int
	BankObjectIDs() []int
	PowerDropEnabled() bool
	PowerDropIDs() []int
	BankingEnabled() bool
	WorkAreaPath() []geometry.WorldCoord
	BankPath() []geometry.WorldCoord
	// HandleSpecialLoot runs any policy-supplied post-loot action for
	// itemID (e.g. bury bones, high-alch), returning true if it handled
	// the item (spec.md §4.10 combat loop step 3).
	HandleSpecialLoot(ctx context.Context, itemID int) bool
}

// SpecialLootHandler is invoked for one looted item id.
type SpecialLootHandler func(ctx context.Context, itemID int) error

// DefaultPolicy adapts a config.Profile's Policy section into the Policy
// interface, with special-loot handlers supplied programmatically since
// they are not representable in the config file.
type DefaultPolicy struct {
	cfg      config.Policy
	handlers map[int]SpecialLootHandler
}

// NewDefaultPolicy builds a DefaultPolicy from a loaded profile's policy
// section. handlers may be nil.
func NewDefaultPolicy(cfg config.Policy, handlers map[int]SpecialLootHandler) *DefaultPolicy {
	return &DefaultPolicy{cfg: cfg, handlers: handlers}
}

func (p *DefaultPolicy) ResourceIDs() []int  { return p.cfg.ResourceIDs }
func (p *DefaultPolicy) GatherAction() string { return p.cfg.GatherAction }
func (p *DefaultPolicy) TargetIDs() []int    { return p.cfg.TargetIDs }
func (p *DefaultPolicy) LootIDs() []int      { return p.cfg.LootIDs }
func (p *DefaultPolicy) FoodIDs() []int      { return p.cfg.FoodIDs }
func (p *DefaultPolicy) FoodThreshold() int  { return p.cfg.FoodThreshold }
func (p *DefaultPolicy) MinFoodCount() int   { return p.cfg.MinFoodCount }
func (p *DefaultPolicy) EscapeHealthThreshold() int { return p.cfg.EscapeHealth }

func (p *DefaultPolicy) TeleportItem() (int, string, bool) {
	if p.cfg.TeleportItem == nil {
		return 0, "", false
	}
	return p.cfg.TeleportItem.ID, p.cfg.TeleportItem.Action, true
}

func (p *DefaultPolicy) EquipmentSlots() map[string]int   { return p.cfg.EquipmentSlots }
func (p *DefaultPolicy) InventoryTargets() map[string]int { return p.cfg.InventoryTargets }
func (p *DefaultPolicy) BankObjectIDs() []int             { return p.cfg.BankObjectIDs }
func (p *DefaultPolicy) PowerDropEnabled() bool           { return p.cfg.PowerDrop }
func (p *DefaultPolicy) PowerDropIDs() []int              { return p.cfg.PowerDropIDs }
func (p *DefaultPolicy) BankingEnabled() bool             { return p.cfg.BankingEnabled }

func (p *DefaultPolicy) WorkAreaPath() []geometry.WorldCoord { return tilesToWorldCoords(p.cfg.WorkAreaPath) }
func (p *DefaultPolicy) BankPath() []geometry.WorldCoord     { return tilesToWorldCoords(p.cfg.BankPath) }

func (p *DefaultPolicy) HandleSpecialLoot(ctx context.Context, itemID int) bool {
	handler, ok := p.handlers[itemID]
	if !ok {
		return false
	}
	if err := handler(ctx, itemID); err != nil {
		return false
	}
	return true
}

func tilesToWorldCoords(tiles []config.WorldTile) []geometry.WorldCoord {
	if len(tiles) == 0 {
		return nil
	}
	out := make([]geometry.WorldCoord, len(tiles))
	for i, t := range tiles {
		out[i] = geometry.WorldCoord{X: int32(t.X), Y: int32(t.Y), Plane: int8(t.Plane)}
	}
	return out
}
