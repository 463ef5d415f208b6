package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientPlayerParsesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player", r.URL.Path)
		w.Write([]byte(`{"name":"Aria","combatLevel":42,"health":58,"maxHealth":100,"isAnimating":true,"animationId":812}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, ok := c.Player(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Aria", p.Name)
	assert.Equal(t, 58, p.Health)
	assert.InDelta(t, 58.0, p.HealthPercent(), 0.001)
	assert.False(t, p.IsDead())
}

func TestClientAbsentOnNetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, ok := c.Player(context.Background())
	assert.False(t, ok)
}

func TestClientAbsentOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, ok := c.Coords(context.Background())
	assert.False(t, ok)
}

func TestClientNpcsInViewportParsesHull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":5,"name":"Goblin","worldX":10,"worldY":20,"plane":0,"x":100,"y":150,"hull":{"points":[{"X":90,"Y":140},{"X":110,"Y":140},{"X":100,"Y":160}]},"healthRatio":3,"healthScale":4}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	npcs, ok := c.NpcsInViewport(context.Background())
	assert.True(t, ok)
	assert.Len(t, npcs, 1)
	assert.True(t, npcs[0].InViewport())
	poly, hasPoly := npcs[0].ScreenPolygon()
	assert.True(t, hasPoly)
	assert.Len(t, poly.Vertices, 3)
	assert.InDelta(t, 75.0, npcs[0].HealthPercent(), 0.001)
}

func TestMenuEntryBoundsExcludesHeader(t *testing.T) {
	m := Menu{
		Entries: []MenuEntry{{Option: "Walk here"}, {Option: "Attack"}, {Option: "Cancel"}},
		X:       0, Y: 0, Width: 120, Height: 80,
	}
	b := m.EntryBounds(0)
	assert.Equal(t, 20, b.Y) // header row occupies [0,20)
}
