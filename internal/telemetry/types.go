// Package telemetry implements a typed, read-only wrapper over the game
// client's local HTTP telemetry endpoint (spec.md §4.1, §6).
//
// Every query returns a strongly-typed optional snapshot: present on
// success, absent on network error, empty body, or schema violation. The
// client never retries and never raises — callers poll at their own cadence
// and treat absence as "try again next cycle," exactly as spec.md §7
// prescribes for TelemetryUnavailable/TelemetryMalformed.
package telemetry

import "github.com/flyff-runtime/botcore/internal/geometry"

// World is the world-space half of a /coords response.
type World struct {
	X, Y, Plane        int
	RegionID           int
	RegionX, RegionY   int
}

// Local is the scene-relative half of a /coords response.
type Local struct {
	SceneX, SceneY int
}

// Coords is the /coords response.
type Coords struct {
	World World
	Local Local
}

// WorldCoord converts the snapshot into a geometry.WorldCoord.
func (c Coords) WorldCoord() geometry.WorldCoord {
	return geometry.WorldCoord{X: int32(c.World.X), Y: int32(c.World.Y), Plane: int8(c.World.Plane)}
}

// Player is the /player response.
type Player struct {
	Name            string
	CombatLevel     int
	Health          int
	MaxHealth       int
	Prayer          int
	MaxPrayer       int
	RunEnergy       int
	SpecialAttack   int
	Weight          int
	IsAnimating     bool
	AnimationID     int
	InteractingWith *string
}

// HealthPercent returns health as a percentage of max, or 0 if MaxHealth is 0.
func (p Player) HealthPercent() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return 100 * float64(p.Health) / float64(p.MaxHealth)
}

// IsDead reports whether the player snapshot indicates death.
func (p Player) IsDead() bool { return p.Health <= 0 }

// CombatTarget is the nested target of a /combat response.
type CombatTarget struct {
	ID          int
	Name        string
	CombatLevel int
	Health      int
	MaxHealth   int
	IsDying     bool
	Position    World
}

// Combat is the /combat response.
type Combat struct {
	InCombat      bool
	AutoRetaliate bool
	Target        *CombatTarget
}

// Animation is the /animation response.
type Animation struct {
	AnimationID   int
	PoseAnimation int
	IsAnimating   bool
	IsMoving      bool
}

// ItemStack is a single /inv, /equip, or /bank entry. Widget and
// Clickable are only ever populated on /bank responses, per spec.md §6:
// "plus optional widget overlay for bank items with screen box,
// accessibility flags."
type ItemStack struct {
	ID       int
	Quantity int
	Slot     int
	Widget   *geometry.Bounds
	Clickable bool
}

// Empty reports whether the slot holds no item (id == -1, spec.md §3).
func (i ItemStack) Empty() bool { return i.ID < 0 }

// NpcSnapshot is one entry of /npcs or /npcs_in_viewport.
type NpcSnapshot struct {
	ID              int
	Name            string
	CombatLevel     int
	WorldX, WorldY  int
	Plane           int
	ScreenX         *int
	ScreenY         *int
	Hull            []geometry.Point
	InteractingWith *string
	IsDying         bool
	Animation       int
	HealthRatio     int
	HealthScale     int
	OverheadText    string
	OverheadIcon    int
}

// WorldCoord converts the snapshot's world position to geometry.WorldCoord.
func (n NpcSnapshot) WorldCoord() geometry.WorldCoord {
	return geometry.WorldCoord{X: int32(n.WorldX), Y: int32(n.WorldY), Plane: int8(n.Plane)}
}

// HealthPercent converts the ratio/scale pair to a percentage.
func (n NpcSnapshot) HealthPercent() float64 {
	if n.HealthScale <= 0 {
		return 0
	}
	return 100 * float64(n.HealthRatio) / float64(n.HealthScale)
}

// InViewport reports whether the entity has a screen position.
func (n NpcSnapshot) InViewport() bool { return n.ScreenX != nil && n.ScreenY != nil }

// ScreenPolygon builds the on-screen hull polygon, if present.
func (n NpcSnapshot) ScreenPolygon() (geometry.Polygon, bool) {
	if len(n.Hull) == 0 {
		return geometry.Polygon{}, false
	}
	return geometry.NewPolygon(n.Hull), true
}

// ObjectSnapshot is one entry of /objects or /objects_in_viewport.
type ObjectSnapshot struct {
	ID             int
	Name           string
	WorldX, WorldY int
	Plane          int
	ScreenX        *int
	ScreenY        *int
	Hull           []geometry.Point
}

// WorldCoord converts the snapshot's world position to geometry.WorldCoord.
func (o ObjectSnapshot) WorldCoord() geometry.WorldCoord {
	return geometry.WorldCoord{X: int32(o.WorldX), Y: int32(o.WorldY), Plane: int8(o.Plane)}
}

// InViewport reports whether the entity has a screen position.
func (o ObjectSnapshot) InViewport() bool { return o.ScreenX != nil && o.ScreenY != nil }

// ScreenPolygon builds the on-screen hull polygon, if present.
func (o ObjectSnapshot) ScreenPolygon() (geometry.Polygon, bool) {
	if len(o.Hull) == 0 {
		return geometry.Polygon{}, false
	}
	return geometry.NewPolygon(o.Hull), true
}

// GroundItem is one entry of /grounditems.
type GroundItem struct {
	ID             int
	Name           string
	Quantity       int
	WorldX, WorldY int
	Plane          int
}

// WorldCoord converts the snapshot's world position to geometry.WorldCoord.
func (g GroundItem) WorldCoord() geometry.WorldCoord {
	return geometry.WorldCoord{X: int32(g.WorldX), Y: int32(g.WorldY), Plane: int8(g.Plane)}
}

// Camera is the /camera response.
type Camera struct {
	Yaw, Pitch, Scale int
	X, Y, Z           int
}

// RotationFeedback is the /camera_rotation response: the closed-loop
// camera controller's entire input (spec.md §4.6).
type RotationFeedback struct {
	Visible      bool
	CurrentYaw   int
	CurrentPitch int
	CurrentScale int
	TargetYaw    int
	TargetPitch  int
	TargetScale  int
	DragPixelsX  int
	DragPixelsY  int
	YawDistance  int
	PitchDistance int
	ScreenX      *int
	ScreenY      *int
}

// MenuEntry is one line of the open context menu.
type MenuEntry struct {
	Option string
	Target string
}

// Menu is the /menu response.
type Menu struct {
	IsOpen  bool
	Entries []MenuEntry
	X, Y    int
	Width   int
	Height  int
}

// EntryBounds returns the on-screen rectangle of the given zero-based entry
// index, per spec.md §4.7's header-row-excluded layout: entry height is
// menuHeight/(entries+1) and the header row is not a selectable entry.
func (m Menu) EntryBounds(index int) geometry.Bounds {
	n := len(m.Entries)
	if n == 0 {
		return geometry.Bounds{}
	}
	entryHeight := m.Height / (n + 1)
	return geometry.Bounds{
		X: m.X,
		Y: m.Y + entryHeight*(index+1),
		W: m.Width,
		H: entryHeight,
	}
}

// Widgets is the /widgets response: open/closed flags for game interfaces.
type Widgets struct {
	IsBankOpen        bool
	IsShopOpen        bool
	IsDialogueOpen    bool
	IsInventoryOpen   bool
	IsLogoutPanelOpen bool
}

// Viewport is the /viewport response.
type Viewport struct {
	Width, Height      int
	XOffset, YOffset   int
	CanvasMouseX       int
	CanvasMouseY       int
}

// Bounds returns the viewport as a geometry.Bounds anchored at its offset.
func (v Viewport) Bounds() geometry.Bounds {
	return geometry.Bounds{X: v.XOffset, Y: v.YOffset, W: v.Width, H: v.Height}
}

// Stat is one entry of /stats.
type Stat struct {
	Stat            string
	Level           int
	BoostedLevel    int
	XP              int
	XPToNextLevel   int
}

// NearestByID is the /nearest_by_id response.
type NearestByID struct {
	Found   bool
	Type    string
	WorldX  int
	WorldY  int
	Plane   int
	Distance float64
	Name    *string
}

// WorldCoord converts the result's position to geometry.WorldCoord, valid
// only when Found is true.
func (n NearestByID) WorldCoord() geometry.WorldCoord {
	return geometry.WorldCoord{X: int32(n.WorldX), Y: int32(n.WorldY), Plane: int8(n.Plane)}
}

// EntityKind distinguishes NPCs from static objects for queries that take
// either (spec.md §4.7's find(entityIds, kind)).
type EntityKind int

const (
	KindNPC EntityKind = iota
	KindObject
)

func (k EntityKind) String() string {
	if k == KindNPC {
		return "npc"
	}
	return "object"
}
