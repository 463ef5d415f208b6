// Package interact implements the Entity Interactor (spec.md §4.7):
// locating NPCs/objects by id, bringing them into view via the camera
// controller when necessary, and driving context-menu clicks against them.
// Grounded on movement.go's MovementCoordinator method shapes
// (locate-then-act, menu read-before-click) generalized from browser.go's
// DOM hit-testing to telemetry-supplied hull polygons and menu snapshots.
package interact

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/flyff-runtime/botcore/internal/camera"
	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/logging"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

// Kind mirrors telemetry.EntityKind for callers that don't otherwise import
// the telemetry package.
type Kind = telemetry.EntityKind

const (
	KindNPC    = telemetry.KindNPC
	KindObject = telemetry.KindObject
)

// Entity is the minimal shape the interactor needs, satisfied by both
// telemetry.NpcSnapshot and telemetry.ObjectSnapshot via the adapters below.
type Entity struct {
	ID     int
	World  geometry.WorldCoord
	Hull   geometry.Polygon
	HasHull bool
}

// Interactor finds and clicks entities using telemetry snapshots, the
// camera controller, and humanized input.
type Interactor struct {
	telemetry *telemetry.Client
	camera    *camera.Controller
	input     *input.Synthesizer
	gameArea  geometry.Bounds
	rng       *rand.Rand
}

// New builds an Interactor.
func New(client *telemetry.Client, cam *camera.Controller, synth *input.Synthesizer, gameArea geometry.Bounds) *Interactor {
	return &Interactor{
		telemetry: client,
		camera:    cam,
		input:     synth,
		gameArea:  gameArea,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func npcToEntity(n telemetry.NpcSnapshot) Entity {
	poly, ok := n.ScreenPolygon()
	return Entity{ID: n.ID, World: n.WorldCoord(), Hull: poly, HasHull: ok}
}

func objectToEntity(o telemetry.ObjectSnapshot) Entity {
	poly, ok := o.ScreenPolygon()
	return Entity{ID: o.ID, World: o.WorldCoord(), Hull: poly, HasHull: ok}
}

// Find locates the nearest entity matching any of entityIds, per spec.md
// §4.7: prefer viewport-visible candidates (nearest by Euclidean world
// distance to the player, random tiebreak); else consult the global
// nearest-by-id endpoint and rotate the camera toward it, then re-query the
// viewport. Returns (entity, false) if nothing is found either way.
func (it *Interactor) Find(ctx context.Context, entityIds []int, kind Kind, playerWorld geometry.WorldCoord) (Entity, bool) {
	if entity, ok := it.findInViewport(ctx, entityIds, kind, playerWorld); ok {
		return entity, true
	}

	for _, id := range entityIds {
		nearest, ok := it.telemetry.NearestByID(ctx, id, kind)
		if !ok || !nearest.Found {
			continue
		}
		world := nearest.WorldCoord()
		it.camera.RotateTo(ctx, int(world.X), int(world.Y), int(world.Plane))
		if entity, ok := it.findInViewport(ctx, entityIds, kind, playerWorld); ok {
			return entity, true
		}
	}
	return Entity{}, false
}

func (it *Interactor) findInViewport(ctx context.Context, entityIds []int, kind Kind, playerWorld geometry.WorldCoord) (Entity, bool) {
	idSet := make(map[int]bool, len(entityIds))
	for _, id := range entityIds {
		idSet[id] = true
	}

	var candidates []Entity
	switch kind {
	case KindNPC:
		npcs, ok := it.telemetry.NpcsInViewport(ctx)
		if !ok {
			return Entity{}, false
		}
		for _, n := range npcs {
			if idSet[n.ID] {
				candidates = append(candidates, npcToEntity(n))
			}
		}
	case KindObject:
		objects, ok := it.telemetry.ObjectsInViewport(ctx)
		if !ok {
			return Entity{}, false
		}
		for _, o := range objects {
			if idSet[o.ID] {
				candidates = append(candidates, objectToEntity(o))
			}
		}
	}
	if len(candidates) == 0 {
		return Entity{}, false
	}
	return it.nearestWithTiebreak(candidates, playerWorld), true
}

func (it *Interactor) nearestWithTiebreak(candidates []Entity, playerWorld geometry.WorldCoord) Entity {
	best := candidates[0]
	bestDist := best.World.EuclideanTiles(playerWorld)
	var tied []Entity
	tied = append(tied, best)

	for _, c := range candidates[1:] {
		d := c.World.EuclideanTiles(playerWorld)
		if d < bestDist {
			best = c
			bestDist = d
			tied = tied[:0]
			tied = append(tied, c)
		} else if d == bestDist {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[it.rng.Intn(len(tied))]
}

// Click performs the protocol in spec.md §4.7 step click(): move to a
// random interior point of the entity's hull, read the top menu entry, and
// either left-click (if it already matches actionText) or right-click and
// select the matching entry from the reopened menu.
func (it *Interactor) Click(ctx context.Context, entity Entity, actionText string) bool {
	point := it.samplePoint(entity)
	it.input.MoveTo(point.X, point.Y, 200*time.Millisecond, 0.35)
	time.Sleep(randDuration(it.rng, 80, 180))

	menu, ok := it.telemetry.Menu(ctx)
	if ok && menu.IsOpen && len(menu.Entries) > 0 &&
		strings.Contains(strings.ToLower(menu.Entries[0].Option), strings.ToLower(actionText)) {
		it.input.Click(input.ButtonLeft)
		return true
	}

	it.input.Click(input.ButtonRight)
	time.Sleep(randDuration(it.rng, 100, 200))

	menu, ok = it.telemetry.Menu(ctx)
	if !ok || !menu.IsOpen {
		logging.Debug("interact: no menu after right-click", "action", actionText)
		return false
	}
	for i, entry := range menu.Entries {
		if strings.Contains(strings.ToLower(entry.Option), strings.ToLower(actionText)) {
			bounds := menu.EntryBounds(i)
			target := bounds.RandomInterior(it.rng)
			it.input.MoveTo(target.X, target.Y, 150*time.Millisecond, 0.3)
			it.input.Click(input.ButtonLeft)
			return true
		}
	}

	// No matching entry: close the menu by moving the mouse away.
	away := geometry.Point{X: it.gameArea.X + it.gameArea.W/2, Y: it.gameArea.Y + 5}
	it.input.MoveTo(away.X, away.Y, 150*time.Millisecond, 0.3)
	logging.Debug("interact: no matching menu entry", "action", actionText)
	return false
}

func (it *Interactor) samplePoint(entity Entity) geometry.Point {
	if entity.HasHull {
		p := entity.Hull.RandomInterior(it.rng)
		return geometry.Point{
			X: clamp(p.X, it.gameArea.X, it.gameArea.X+it.gameArea.W),
			Y: clamp(p.Y, it.gameArea.Y, it.gameArea.Y+it.gameArea.H),
		}
	}
	return it.gameArea.Center()
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func randDuration(rng *rand.Rand, minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(minMs+rng.Intn(maxMs-minMs)) * time.Millisecond
}
