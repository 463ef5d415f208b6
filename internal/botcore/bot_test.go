package botcore

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/config"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestSlotScreenPointStaysWithinPanel(t *testing.T) {
	panel := geometry.Bounds{X: 560, Y: 205, W: 188, H: 266}
	rng := newTestRand()
	for _, slot := range []int{1, 4, 14, 28} {
		p := slotScreenPoint(panel, slot, rng)
		assert.True(t, p.X >= panel.X && p.X < panel.X+panel.W)
		assert.True(t, p.Y >= panel.Y && p.Y < panel.Y+panel.H)
	}
}

func TestSlotScreenPointDistinctColumns(t *testing.T) {
	panel := geometry.Bounds{X: 0, Y: 0, W: 200, H: 350}
	rng := newTestRand()
	a := slotScreenPoint(panel, 1, rng)
	b := slotScreenPoint(panel, 2, rng)
	assert.NotEqual(t, a.X/50, b.X/50)
}

func TestCountMatchingSumsQuantities(t *testing.T) {
	inv := []telemetry.ItemStack{
		{ID: 10, Quantity: 3, Slot: 1},
		{ID: 20, Quantity: 5, Slot: 2},
		{ID: 10, Quantity: 2, Slot: 3},
	}
	assert.Equal(t, 5, countMatching(inv, []int{10}))
	assert.Equal(t, 10, countMatching(inv, []int{10, 20}))
	assert.Equal(t, 0, countMatching(inv, []int{999}))
}

func TestObjectPresentAtMatchesIDAndCoord(t *testing.T) {
	target := geometry.WorldCoord{X: 100, Y: 200, Plane: 0}
	objects := []telemetry.ObjectSnapshot{
		{ID: 5, WorldX: 100, WorldY: 200, Plane: 0},
		{ID: 6, WorldX: 101, WorldY: 200, Plane: 0},
	}
	assert.True(t, objectPresentAt(objects, 5, target))
	assert.False(t, objectPresentAt(objects, 6, target))
	assert.False(t, objectPresentAt(objects, 99, target))
}

func TestNearBankUsesLastPathTile(t *testing.T) {
	b := &Bot{Policy: NewDefaultPolicy(config.Policy{
		BankPath: []config.WorldTile{{X: 0, Y: 0, Plane: 0}, {X: 10, Y: 10, Plane: 0}},
	}, nil)}
	assert.True(t, b.nearBank(fakeCoords(12, 10)))
	assert.False(t, b.nearBank(fakeCoords(500, 500)))
}

func TestNearBankFalseWithoutConfiguredPath(t *testing.T) {
	b := &Bot{Policy: NewDefaultPolicy(config.Policy{}, nil)}
	assert.False(t, b.nearBank(fakeCoords(0, 0)))
}

func fakeCoords(x, y int) telemetry.Coords {
	return telemetry.Coords{World: telemetry.World{X: x, Y: y, Plane: 0}}
}

func TestDefaultPolicyTeleportItem(t *testing.T) {
	withItem := NewDefaultPolicy(config.Policy{
		TeleportItem: &config.TeleportItem{ID: 555, Action: "Rub"},
	}, nil)
	id, action, configured := withItem.TeleportItem()
	assert.True(t, configured)
	assert.Equal(t, 555, id)
	assert.Equal(t, "Rub", action)

	without := NewDefaultPolicy(config.Policy{}, nil)
	_, _, configured = without.TeleportItem()
	assert.False(t, configured)
}

func TestDefaultPolicyHandleSpecialLoot(t *testing.T) {
	called := false
	handlers := map[int]SpecialLootHandler{
		526: func(ctx context.Context, itemID int) error { called = true; return nil },
	}
	p := NewDefaultPolicy(config.Policy{}, handlers)
	assert.True(t, p.HandleSpecialLoot(context.Background(), 526))
	assert.True(t, called)
	assert.False(t, p.HandleSpecialLoot(context.Background(), 1))
}

func TestDefaultPolicyPathsConvertWorldTiles(t *testing.T) {
	p := NewDefaultPolicy(config.Policy{
		WorkAreaPath: []config.WorldTile{{X: 1, Y: 2, Plane: 0}},
		BankPath:     []config.WorldTile{{X: 3, Y: 4, Plane: 1}},
	}, nil)
	work := p.WorkAreaPath()
	bank := p.BankPath()
	assert.Equal(t, []geometry.WorldCoord{{X: 1, Y: 2, Plane: 0}}, work)
	assert.Equal(t, []geometry.WorldCoord{{X: 3, Y: 4, Plane: 1}}, bank)
}

func TestCountersSnapshotIndependence(t *testing.T) {
	b := &Bot{}
	b.recordKill()
	b.recordResource()
	b.recordEaten()
	snap := b.Counters()
	assert.Equal(t, 1, snap.Kills)
	assert.Equal(t, 1, snap.ResourcesGathered)
	assert.Equal(t, 1, snap.EatenCount)
	b.recordKill()
	assert.Equal(t, 1, snap.Kills, "snapshot must not mutate after copy")
	assert.Equal(t, 2, b.Counters().Kills)
}
