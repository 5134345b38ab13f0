package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pulsechat/relay/internal/api/middleware"
	"github.com/pulsechat/relay/internal/models"
)

const heartbeatInterval = 25 * time.Second

var (
	errSinkClosed  = errors.New("handlers: session sink closed")
	errSlowSession = errors.New("handlers: session event buffer full")
)

// sseSink buffers outbound events for one SSE connection. Push never
// blocks: a session that cannot keep up starts losing events, reported to
// the router as a delivery failure.
type sseSink struct {
	events chan models.Event
	done   chan struct{}
	once   sync.Once
	reason string
}

func newSSESink(buffer int) *sseSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &sseSink{
		events: make(chan models.Event, buffer),
		done:   make(chan struct{}),
	}
}

func (s *sseSink) Push(ev models.Event) error {
	select {
	case <-s.done:
		return errSinkClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	default:
		return errSlowSession
	}
}

func (s *sseSink) Close(reason string) {
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// Events opens the server-push stream for one session. The first frame
// carries the session handle the client must echo in X-Relay-Session on
// every subsequent request. Closing the stream, from either side, tears
// the session down.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetIdentityFromContext(r.Context()); !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sink := newSSESink(h.sessionBuffer)
	handle := h.lifecycle.Connect(sink)
	defer h.lifecycle.Disconnect(handle)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, "session", map[string]string{"session": handle.String()})
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sink.done:
			return
		case ev := <-sink.events:
			writeFrame(w, string(ev.Type), ev.Data)
			flusher.Flush()
		case <-ticker.C:
			// Advisory keepalive; never triggers disconnection.
			h.router.Heartbeat(handle)
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
