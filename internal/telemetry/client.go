package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/logging"
)

// requestTimeout is the per-request timeout named in spec.md §4.1.
const requestTimeout = 2 * time.Second

// Client is a strongly-typed, read-only wrapper over the game client's
// local telemetry HTTP endpoint. It never retries; callers poll.
//
// The client is not a general-purpose HTTP client: every method returns an
// (value, ok) pair rather than an error, because absence (network error,
// empty body, schema violation) is the normal, expected outcome of a single
// poll and callers are expected to treat it uniformly (spec.md §4.1, §7).
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	lastLatency  map[string]time.Duration
}

// NewClient builds a Client against baseURL, e.g. "http://127.0.0.1:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		lastLatency: make(map[string]time.Duration),
	}
}

// LastLatency returns the most recently observed round-trip time for an
// endpoint, for diagnostics (spec.md §4.1).
func (c *Client) LastLatency(endpoint string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.lastLatency[endpoint]
	return d, ok
}

func (c *Client) recordLatency(endpoint string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastLatency[endpoint] = d
}

// get performs a GET against path with the given query values, decoding
// the JSON body into out. Returns false on any error — network failure,
// non-2xx status, empty body, or decode failure — and logs at debug level
// rather than propagating an error, per spec.md §4.1's absence-typed
// contract.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) bool {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		logging.Debug("telemetry: build request failed", "path", path, "err", err)
		return false
	}

	resp, err := c.http.Do(req)
	c.recordLatency(path, time.Since(start))
	if err != nil {
		logging.Debug("telemetry: request failed", "path", path, "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Debug("telemetry: non-2xx status", "path", path, "status", resp.StatusCode)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logging.Debug("telemetry: malformed body", "path", path, "err", err)
		return false
	}
	return true
}

// --- wire DTOs and their conversion to the public snapshot types ---

type statDTO struct {
	Stat          string `json:"stat"`
	Level         int    `json:"level"`
	BoostedLevel  int    `json:"boostedLevel"`
	XP            int    `json:"xp"`
	XPToNextLevel int    `json:"xpToNextLevel"`
}

// Stats returns the /stats response, or absent on any failure.
func (c *Client) Stats(ctx context.Context) ([]Stat, bool) {
	var dtos []statDTO
	if !c.get(ctx, "/stats", nil, &dtos) {
		return nil, false
	}
	out := make([]Stat, len(dtos))
	for i, d := range dtos {
		out[i] = Stat{Stat: d.Stat, Level: d.Level, BoostedLevel: d.BoostedLevel, XP: d.XP, XPToNextLevel: d.XPToNextLevel}
	}
	return out, true
}

type playerDTO struct {
	Name            string  `json:"name"`
	CombatLevel     int     `json:"combatLevel"`
	Health          int     `json:"health"`
	MaxHealth       int     `json:"maxHealth"`
	Prayer          int     `json:"prayer"`
	MaxPrayer       int     `json:"maxPrayer"`
	RunEnergy       int     `json:"runEnergy"`
	SpecialAttack   int     `json:"specialAttack"`
	Weight          int     `json:"weight"`
	IsAnimating     bool    `json:"isAnimating"`
	AnimationID     int     `json:"animationId"`
	InteractingWith *string `json:"interactingWith"`
}

// Player returns the /player response, or absent on any failure.
func (c *Client) Player(ctx context.Context) (Player, bool) {
	var d playerDTO
	if !c.get(ctx, "/player", nil, &d) {
		return Player{}, false
	}
	return Player{
		Name: d.Name, CombatLevel: d.CombatLevel, Health: d.Health, MaxHealth: d.MaxHealth,
		Prayer: d.Prayer, MaxPrayer: d.MaxPrayer, RunEnergy: d.RunEnergy, SpecialAttack: d.SpecialAttack,
		Weight: d.Weight, IsAnimating: d.IsAnimating, AnimationID: d.AnimationID, InteractingWith: d.InteractingWith,
	}, true
}

type coordsDTO struct {
	World struct {
		X, Y, Plane, RegionID, RegionX, RegionY int
	} `json:"world"`
	Local struct {
		SceneX, SceneY int
	} `json:"local"`
}

// Coords returns the /coords response, or absent on any failure.
func (c *Client) Coords(ctx context.Context) (Coords, bool) {
	var d coordsDTO
	if !c.get(ctx, "/coords", nil, &d) {
		return Coords{}, false
	}
	return Coords{
		World: World{X: d.World.X, Y: d.World.Y, Plane: d.World.Plane, RegionID: d.World.RegionID, RegionX: d.World.RegionX, RegionY: d.World.RegionY},
		Local: Local{SceneX: d.Local.SceneX, SceneY: d.Local.SceneY},
	}, true
}

type combatDTO struct {
	InCombat      bool `json:"inCombat"`
	AutoRetaliate bool `json:"autoRetaliate"`
	Target        *struct {
		ID          int  `json:"id"`
		Name        string `json:"name"`
		CombatLevel int  `json:"combatLevel"`
		Health      int  `json:"health"`
		MaxHealth   int  `json:"maxHealth"`
		IsDying     bool `json:"isDying"`
		Position    struct{ X, Y, Plane int } `json:"position"`
	} `json:"target"`
}

// Combat returns the /combat response, or absent on any failure.
func (c *Client) Combat(ctx context.Context) (Combat, bool) {
	var d combatDTO
	if !c.get(ctx, "/combat", nil, &d) {
		return Combat{}, false
	}
	out := Combat{InCombat: d.InCombat, AutoRetaliate: d.AutoRetaliate}
	if d.Target != nil {
		out.Target = &CombatTarget{
			ID: d.Target.ID, Name: d.Target.Name, CombatLevel: d.Target.CombatLevel,
			Health: d.Target.Health, MaxHealth: d.Target.MaxHealth, IsDying: d.Target.IsDying,
			Position: World{X: d.Target.Position.X, Y: d.Target.Position.Y, Plane: d.Target.Position.Plane},
		}
	}
	return out, true
}

type animationDTO struct {
	AnimationID   int  `json:"animationId"`
	PoseAnimation int  `json:"poseAnimation"`
	IsAnimating   bool `json:"isAnimating"`
	IsMoving      bool `json:"isMoving"`
}

// Animation returns the /animation response, or absent on any failure.
func (c *Client) Animation(ctx context.Context) (Animation, bool) {
	var d animationDTO
	if !c.get(ctx, "/animation", nil, &d) {
		return Animation{}, false
	}
	return Animation(d), true
}

type itemDTO struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
	Slot     int `json:"slot"`
	Widget   *struct {
		X, Y, W, H int
	} `json:"widget"`
	Clickable bool `json:"clickable"`
}

func (c *Client) items(ctx context.Context, path string) ([]ItemStack, bool) {
	var dtos []itemDTO
	if !c.get(ctx, path, nil, &dtos) {
		return nil, false
	}
	out := make([]ItemStack, len(dtos))
	for i, d := range dtos {
		item := ItemStack{ID: d.ID, Quantity: d.Quantity, Slot: d.Slot, Clickable: d.Clickable}
		if d.Widget != nil {
			item.Widget = &geometry.Bounds{X: d.Widget.X, Y: d.Widget.Y, W: d.Widget.W, H: d.Widget.H}
		}
		out[i] = item
	}
	return out, true
}

// Inventory returns the /inv response, or absent on any failure.
func (c *Client) Inventory(ctx context.Context) ([]ItemStack, bool) { return c.items(ctx, "/inv") }

// Equipment returns the /equip response, or absent on any failure.
func (c *Client) Equipment(ctx context.Context) ([]ItemStack, bool) { return c.items(ctx, "/equip") }

// Bank returns the /bank response, or absent on any failure.
func (c *Client) Bank(ctx context.Context) ([]ItemStack, bool) { return c.items(ctx, "/bank") }

type hullPointDTO struct{ X, Y int }

type npcDTO struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	CombatLevel     int            `json:"combatLevel"`
	WorldX          int            `json:"worldX"`
	WorldY          int            `json:"worldY"`
	Plane           int            `json:"plane"`
	X               *int           `json:"x"`
	Y               *int           `json:"y"`
	Hull            *struct{ Points []hullPointDTO `json:"points"` } `json:"hull"`
	InteractingWith *string        `json:"interactingWith"`
	IsDying         bool           `json:"isDying"`
	Animation       int            `json:"animation"`
	HealthRatio     int            `json:"healthRatio"`
	HealthScale     int            `json:"healthScale"`
	OverheadText    string         `json:"overheadText"`
	OverheadIcon    int            `json:"overheadIcon"`
}

func npcFromDTO(d npcDTO) NpcSnapshot {
	n := NpcSnapshot{
		ID: d.ID, Name: d.Name, CombatLevel: d.CombatLevel, WorldX: d.WorldX, WorldY: d.WorldY,
		Plane: d.Plane, ScreenX: d.X, ScreenY: d.Y, InteractingWith: d.InteractingWith,
		IsDying: d.IsDying, Animation: d.Animation, HealthRatio: d.HealthRatio, HealthScale: d.HealthScale,
		OverheadText: d.OverheadText, OverheadIcon: d.OverheadIcon,
	}
	if d.Hull != nil {
		n.Hull = make([]geometry.Point, 0, len(d.Hull.Points))
		for _, pt := range d.Hull.Points {
			n.Hull = append(n.Hull, geometry.Point{X: pt.X, Y: pt.Y})
		}
	}
	return n
}

func (c *Client) npcs(ctx context.Context, path string) ([]NpcSnapshot, bool) {
	var dtos []npcDTO
	if !c.get(ctx, path, nil, &dtos) {
		return nil, false
	}
	out := make([]NpcSnapshot, len(dtos))
	for i, d := range dtos {
		out[i] = npcFromDTO(d)
	}
	return out, true
}

// Npcs returns the /npcs response, or absent on any failure.
func (c *Client) Npcs(ctx context.Context) ([]NpcSnapshot, bool) { return c.npcs(ctx, "/npcs") }

// NpcsInViewport returns the /npcs_in_viewport response, or absent on any failure.
func (c *Client) NpcsInViewport(ctx context.Context) ([]NpcSnapshot, bool) {
	return c.npcs(ctx, "/npcs_in_viewport")
}

// Players returns the /players response, or absent on any failure.
func (c *Client) Players(ctx context.Context) ([]NpcSnapshot, bool) { return c.npcs(ctx, "/players") }

type objectDTO struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	WorldX int    `json:"worldX"`
	WorldY int    `json:"worldY"`
	Plane  int    `json:"plane"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Hull   *struct{ Points []hullPointDTO `json:"points"` } `json:"hull"`
}

func (c *Client) objects(ctx context.Context, path string) ([]ObjectSnapshot, bool) {
	var dtos []objectDTO
	if !c.get(ctx, path, nil, &dtos) {
		return nil, false
	}
	out := make([]ObjectSnapshot, len(dtos))
	for i, d := range dtos {
		o := ObjectSnapshot{ID: d.ID, Name: d.Name, WorldX: d.WorldX, WorldY: d.WorldY, Plane: d.Plane, ScreenX: d.X, ScreenY: d.Y}
		if d.Hull != nil {
			o.Hull = make([]geometry.Point, 0, len(d.Hull.Points))
			for _, pt := range d.Hull.Points {
				o.Hull = append(o.Hull, geometry.Point{X: pt.X, Y: pt.Y})
			}
		}
		out[i] = o
	}
	return out, true
}

// Objects returns the /objects response, or absent on any failure.
func (c *Client) Objects(ctx context.Context) ([]ObjectSnapshot, bool) { return c.objects(ctx, "/objects") }

// ObjectsInViewport returns the /objects_in_viewport response, or absent on any failure.
func (c *Client) ObjectsInViewport(ctx context.Context) ([]ObjectSnapshot, bool) {
	return c.objects(ctx, "/objects_in_viewport")
}

type groundItemDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	WorldX   int    `json:"worldX"`
	WorldY   int    `json:"worldY"`
	Plane    int    `json:"plane"`
}

// GroundItems returns the /grounditems response filtered by x, y, plane,
// radius. Pass radius <= 0 to omit spatial filtering.
func (c *Client) GroundItems(ctx context.Context, x, y, plane, radius int) ([]GroundItem, bool) {
	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	q.Set("plane", strconv.Itoa(plane))
	if radius > 0 {
		q.Set("radius", strconv.Itoa(radius))
	}
	var dtos []groundItemDTO
	if !c.get(ctx, "/grounditems", q, &dtos) {
		return nil, false
	}
	out := make([]GroundItem, len(dtos))
	for i, d := range dtos {
		out[i] = GroundItem{ID: d.ID, Name: d.Name, Quantity: d.Quantity, WorldX: d.WorldX, WorldY: d.WorldY, Plane: d.Plane}
	}
	return out, true
}

// Camera returns the /camera response, or absent on any failure.
func (c *Client) Camera(ctx context.Context) (Camera, bool) {
	var d Camera
	if !c.get(ctx, "/camera", nil, &d) {
		return Camera{}, false
	}
	return d, true
}

type rotationDTO struct {
	Visible       bool `json:"visible"`
	CurrentYaw    int  `json:"currentYaw"`
	CurrentPitch  int  `json:"currentPitch"`
	CurrentScale  int  `json:"currentScale"`
	TargetYaw     int  `json:"targetYaw"`
	TargetPitch   int  `json:"targetPitch"`
	TargetScale   int  `json:"targetScale"`
	DragPixelsX   int  `json:"dragPixelsX"`
	DragPixelsY   int  `json:"dragPixelsY"`
	YawDistance   int  `json:"yawDistance"`
	PitchDistance int  `json:"pitchDistance"`
	ScreenX       *int `json:"screenX"`
	ScreenY       *int `json:"screenY"`
}

// CameraRotationTo returns the /camera_rotation response for the given
// world tile, the entire closed-loop camera controller's input
// (spec.md §4.6).
func (c *Client) CameraRotationTo(ctx context.Context, x, y, plane int) (RotationFeedback, bool) {
	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	q.Set("plane", strconv.Itoa(plane))
	var d rotationDTO
	if !c.get(ctx, "/camera_rotation", q, &d) {
		return RotationFeedback{}, false
	}
	return RotationFeedback{
		Visible: d.Visible, CurrentYaw: d.CurrentYaw, CurrentPitch: d.CurrentPitch, CurrentScale: d.CurrentScale,
		TargetYaw: d.TargetYaw, TargetPitch: d.TargetPitch, TargetScale: d.TargetScale,
		DragPixelsX: d.DragPixelsX, DragPixelsY: d.DragPixelsY, YawDistance: d.YawDistance, PitchDistance: d.PitchDistance,
		ScreenX: d.ScreenX, ScreenY: d.ScreenY,
	}, true
}

// GameState returns the raw /game_state response body as a generic map,
// since spec.md does not name a fixed schema for it beyond "game state."
func (c *Client) GameState(ctx context.Context) (map[string]interface{}, bool) {
	var d map[string]interface{}
	if !c.get(ctx, "/game_state", nil, &d) {
		return nil, false
	}
	return d, true
}

type menuDTO struct {
	IsOpen  bool `json:"isOpen"`
	Entries []struct {
		Option string `json:"option"`
		Target string `json:"target"`
	} `json:"entries"`
	X, Y, Width, Height int
}

// Menu returns the /menu response, or absent on any failure.
func (c *Client) Menu(ctx context.Context) (Menu, bool) {
	var d menuDTO
	if !c.get(ctx, "/menu", nil, &d) {
		return Menu{}, false
	}
	entries := make([]MenuEntry, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = MenuEntry{Option: e.Option, Target: e.Target}
	}
	return Menu{IsOpen: d.IsOpen, Entries: entries, X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}, true
}

// Widgets returns the /widgets response, or absent on any failure.
func (c *Client) Widgets(ctx context.Context) (Widgets, bool) {
	var d Widgets
	if !c.get(ctx, "/widgets", nil, &d) {
		return Widgets{}, false
	}
	return d, true
}

// Viewport returns the /viewport response, or absent on any failure.
func (c *Client) Viewport(ctx context.Context) (Viewport, bool) {
	var d struct {
		Width, Height, XOffset, YOffset, CanvasMouseX, CanvasMouseY int
	}
	if !c.get(ctx, "/viewport", nil, &d) {
		return Viewport{}, false
	}
	return Viewport(d), true
}

// MagicLevel returns the magic skill's current level from /stats, or
// absent if the skill is missing or stats are unavailable.
func (c *Client) MagicLevel(ctx context.Context) (int, bool) {
	stats, ok := c.Stats(ctx)
	if !ok {
		return 0, false
	}
	for _, s := range stats {
		if s.Stat == "Magic" {
			return s.Level, true
		}
	}
	return 0, false
}

type nearestDTO struct {
	Found    bool    `json:"found"`
	Type     string  `json:"type"`
	WorldX   int     `json:"worldX"`
	WorldY   int     `json:"worldY"`
	Plane    int     `json:"plane"`
	Distance float64 `json:"distance"`
	Name     *string `json:"name"`
}

// NearestByID returns the /nearest_by_id response for the given id/kind.
func (c *Client) NearestByID(ctx context.Context, id int, kind EntityKind) (NearestByID, bool) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(id))
	q.Set("type", kind.String())
	var d nearestDTO
	if !c.get(ctx, "/nearest_by_id", q, &d) {
		return NearestByID{}, false
	}
	return NearestByID(d), true
}
