// Package eventreceiver implements the optional Event Receiver (SPEC_FULL.md
// §4.12 ADDED, resolving spec.md §9's Open Question): a gorilla/mux-routed
// HTTP server that accepts POSTed JSON events and forwards each decoded
// envelope, unopinionated, onto a sink channel. It implements no consumer
// logic — spec.md's Open Question leaves state consumers out of scope.
// Grounded on niceyeti-tabular's gorilla/mux server-routing style from the
// retrieval pack; nothing elsewhere in this tree's history runs an inbound
// server to crib from.
package eventreceiver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/flyff-runtime/botcore/internal/logging"
)

// Envelope is one decoded event POST. Fields left deliberately loose per
// spec.md §9: "no stronger contract is implied since the source does not
// implement consumers."
type Envelope struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// Receiver hosts the /events/* routes and forwards decoded envelopes to Sink.
type Receiver struct {
	Sink chan<- Envelope

	server *http.Server
}

// New builds a Receiver bound to addr, forwarding decoded envelopes to sink.
// sink should be buffered or drained promptly; a full channel causes the
// receiver to drop the event and log it rather than block the HTTP handler.
func New(addr string, sink chan<- Envelope) *Receiver {
	r := &Receiver{Sink: sink}

	router := mux.NewRouter()
	router.HandleFunc("/events/{type}", r.handleEvent).Methods(http.MethodPost)

	r.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return r
}

func (r *Receiver) handleEvent(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var payload json.RawMessage
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	envelope := Envelope{Type: vars["type"], Payload: payload, ReceivedAt: time.Now()}
	select {
	case r.Sink <- envelope:
	default:
		logging.Warn("eventreceiver: sink full, dropping event", "type", envelope.Type)
	}
	w.WriteHeader(http.StatusAccepted)
}

// Run starts the HTTP server and blocks until ctx is canceled, at which
// point it shuts the server down gracefully. Designed to be run under an
// errgroup.Group alongside the core loop (SPEC_FULL.md §5).
func (r *Receiver) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.server.Shutdown(shutdownCtx); err != nil {
			logging.Error("eventreceiver: shutdown error", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
