package camera

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flyff-runtime/botcore/internal/geometry"
	"github.com/flyff-runtime/botcore/internal/input"
	"github.com/flyff-runtime/botcore/internal/telemetry"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestRotateToReturnsImmediatelyWhenAlreadyVisible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"visible": true})
	}))
	defer srv.Close()

	c := New(telemetry.NewClient(srv.URL), input.NewSynthesizer(), geometry.NewBounds(0, 0, 800, 600))
	ok := c.RotateTo(context.Background(), 10, 10, 0)
	assert.True(t, ok)
}

func TestRotateToAbortsOnFeedbackFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(telemetry.NewClient(srv.URL), input.NewSynthesizer(), geometry.NewBounds(0, 0, 800, 600))
	ok := c.RotateTo(context.Background(), 10, 10, 0)
	assert.False(t, ok)
}

func TestRotationLoopSucceedsOnSmallDragMagnitude(t *testing.T) {
	c := &Controller{
		telemetry: telemetry.NewClient("http://127.0.0.1:1"),
		input:     input.NewSynthesizer(),
		rng:       newTestRand(),
		gameArea:  geometry.NewBounds(0, 0, 800, 600),
	}
	feedback := telemetry.RotationFeedback{Visible: false, DragPixelsX: 3, DragPixelsY: 2, CurrentYaw: -1, CurrentPitch: -1}
	ok := c.rotationLoop(context.Background(), 0, 0, 0, feedback)
	assert.True(t, ok)
}
