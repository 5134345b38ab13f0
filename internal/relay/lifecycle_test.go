package relay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pulsechat/relay/internal/models"
)

func newLifecycleFixture(t *testing.T) (*Lifecycle, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewLifecycle(f.router, zerolog.Nop()), f
}

func TestLifecycle_ConnectedButNotJoined(t *testing.T) {
	req := require.New(t)
	lc, f := newLifecycleFixture(t)

	handle := lc.Connect(&recordingSink{})

	// Connected sessions are guarded from routing and invisible to presence.
	req.ErrorIs(lc.Guard(handle), ErrNotJoined)
	req.Zero(f.registry.Len())
}

func TestLifecycle_JoinThenGuard(t *testing.T) {
	req := require.New(t)
	lc, f := newLifecycleFixture(t)

	handle := lc.Connect(&recordingSink{})
	req.NoError(lc.Join(handle, alice))
	req.NoError(lc.Guard(handle))
	req.Equal(1, f.registry.Len())

	// A second join is a no-op, not a re-registration.
	req.NoError(lc.Join(handle, alice))
	req.Equal(1, f.registry.Len())
}

func TestLifecycle_GuardUnknownHandle(t *testing.T) {
	lc, _ := newLifecycleFixture(t)
	require.ErrorIs(t, lc.Guard(uuid.New()), ErrUnknownSender)
}

func TestLifecycle_JoinUnknownHandle(t *testing.T) {
	lc, _ := newLifecycleFixture(t)
	require.ErrorIs(t, lc.Join(uuid.New(), alice), ErrUnknownSender)
}

func TestLifecycle_DisconnectBeforeJoinIsSilent(t *testing.T) {
	req := require.New(t)
	lc, _ := newLifecycleFixture(t)

	watcherSink := &recordingSink{}
	watcher := lc.Connect(watcherSink)
	req.NoError(lc.Join(watcher, alice))

	sink := &recordingSink{}
	handle := lc.Connect(sink)
	lc.Disconnect(handle)

	req.True(sink.closed)
	req.ErrorIs(lc.Guard(handle), ErrUnknownSender)
	// Nobody ever saw the pre-join connection.
	req.Empty(watcherSink.eventsOfType(models.EventUserLeft))
}

func TestLifecycle_DisconnectIdempotent(t *testing.T) {
	req := require.New(t)
	lc, f := newLifecycleFixture(t)

	watcherSink := &recordingSink{}
	watcher := lc.Connect(watcherSink)
	req.NoError(lc.Join(watcher, alice))

	sink := &recordingSink{}
	handle := lc.Connect(sink)
	req.NoError(lc.Join(handle, bob))

	lc.Disconnect(handle)
	lc.Disconnect(handle)

	req.Len(watcherSink.eventsOfType(models.EventUserLeft), 1)
	req.Equal(1, f.registry.Len())
	req.True(sink.closed)
}
