package eventreceiver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestRouter exercises the same handler the real server registers,
// without binding a real listening port.
func buildTestRouter(sink chan Envelope) *mux.Router {
	r := &Receiver{Sink: sink}
	router := mux.NewRouter()
	router.HandleFunc("/events/{type}", r.handleEvent).Methods(http.MethodPost)
	return router
}

func TestHandleEventForwardsToSink(t *testing.T) {
	sink := make(chan Envelope, 1)
	router := buildTestRouter(sink)

	body := bytes.NewBufferString(`{"x":1}`)
	req := httptest.NewRequest(http.MethodPost, "/events/chat", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case env := <-sink:
		assert.Equal(t, "chat", env.Type)
		var decoded map[string]int
		require.NoError(t, json.Unmarshal(env.Payload, &decoded))
		assert.Equal(t, 1, decoded["x"])
	case <-time.After(time.Second):
		t.Fatal("envelope never reached sink")
	}
}

func TestHandleEventRejectsInvalidJSON(t *testing.T) {
	sink := make(chan Envelope, 1)
	router := buildTestRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/events/chat", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEventDropsWhenSinkFull(t *testing.T) {
	sink := make(chan Envelope) // unbuffered, nothing draining it
	router := buildTestRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/events/chat", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code, "drop is silent from the caller's perspective")
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	sink := make(chan Envelope, 1)
	r := New("127.0.0.1:0", sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
