package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/models"
	"github.com/pulsechat/relay/internal/presence"
)

// Lifecycle binds transport connect/disconnect callbacks to the router.
// Sessions move Connected -> Joined -> Disconnected; only Joined sessions
// participate in routing. Whatever the transport does with its close
// callbacks, OnLeave fires at most once per session.
type Lifecycle struct {
	router *Router
	log    zerolog.Logger

	mu    sync.Mutex
	conns map[uuid.UUID]*conn
}

type conn struct {
	sink   presence.Sink
	joined bool
	leave  sync.Once
}

func NewLifecycle(router *Router, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		router: router,
		log:    logger,
		conns:  make(map[uuid.UUID]*conn),
	}
}

// Connect allocates a session handle for a fresh transport connection.
// The connection is not in the presence registry yet: a connection that
// disconnects before joining never appears there.
func (m *Lifecycle) Connect(sink presence.Sink) uuid.UUID {
	handle := uuid.New()
	m.mu.Lock()
	m.conns[handle] = &conn{sink: sink}
	m.mu.Unlock()

	m.log.Debug().Str("session", handle.String()).Msg("transport connected")
	return handle
}

// Join completes the handshake: binds the identity to the connection and
// registers it for routing.
func (m *Lifecycle) Join(handle uuid.UUID, identity models.Identity) error {
	m.mu.Lock()
	c, ok := m.conns[handle]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownSender
	}
	if c.joined {
		// Identity is immutable for the session lifetime.
		return nil
	}

	if err := m.router.OnJoin(handle, identity, c.sink); err != nil {
		return err
	}

	m.mu.Lock()
	c.joined = true
	m.mu.Unlock()
	return nil
}

// Guard reports whether a session may route events: ErrUnknownSender for
// handles this manager never issued, ErrNotJoined before the handshake.
func (m *Lifecycle) Guard(handle uuid.UUID) error {
	m.mu.Lock()
	c, ok := m.conns[handle]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownSender
	}
	if !c.joined {
		return ErrNotJoined
	}
	return nil
}

// Disconnect tears the session down. Idempotent: transports double-fire
// close callbacks and the registry's unregister is the backstop, but the
// sync.Once means the router sees at most one leave.
func (m *Lifecycle) Disconnect(handle uuid.UUID) {
	m.mu.Lock()
	c, ok := m.conns[handle]
	delete(m.conns, handle)
	m.mu.Unlock()
	if !ok {
		return
	}

	c.leave.Do(func() {
		if c.joined {
			m.router.OnLeave(handle)
		}
		c.sink.Close("disconnected")
		m.log.Debug().Str("session", handle.String()).Msg("transport disconnected")
	})
}
