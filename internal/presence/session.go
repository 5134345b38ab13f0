package presence

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulsechat/relay/internal/models"
)

// Sink is the transport-facing half of a session: the router pushes
// outbound events into it. Implementations must not block; a sink that
// cannot accept an event returns an error, which the router logs and
// counts but never propagates.
type Sink interface {
	Push(ev models.Event) error
	// Close tears down the transport side of the session. Safe to call
	// more than once.
	Close(reason string)
}

// Session is one live transport connection bound to an identity after the
// join handshake. It is owned exclusively by the Registry from Register
// until Unregister.
type Session struct {
	Handle   uuid.UUID
	Identity models.Identity
	JoinedAt time.Time

	// LastSeen is advisory, updated by heartbeats. It never triggers
	// disconnection here; liveness is the transport's problem.
	LastSeen time.Time

	// seq orders sessions by registration, immune to clock ties.
	seq  uint64
	sink Sink
}

// Deliver pushes an event to this session's transport.
func (s *Session) Deliver(ev models.Event) error {
	return s.sink.Push(ev)
}

// Evict closes the session's transport, used when a newer connection for
// the same identity takes over.
func (s *Session) Evict(reason string) {
	s.sink.Close(reason)
}
