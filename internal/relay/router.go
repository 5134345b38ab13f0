// Package relay implements the routing core: deciding, for each inbound
// event, which connected sessions receive which outbound event.
package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/conversation"
	"github.com/pulsechat/relay/internal/metrics"
	"github.com/pulsechat/relay/internal/models"
	"github.com/pulsechat/relay/internal/presence"
)

// Router fans events out to the right sessions. It owns no transport and
// no persistence: the registry answers who is online, the persister takes
// envelopes off the routing path, and sinks absorb deliveries. A routing
// error is always isolated to the offending session and never crashes
// shared state.
type Router struct {
	registry  *presence.Registry
	persister *Persister
	log       zerolog.Logger

	// tsMu guards the timestamp watermark: server-assigned timestamps
	// are the single ordering authority and must never go backwards
	// across sequential sends.
	tsMu   sync.Mutex
	lastTS int64

	// typingMu guards the ephemeral typing state, kept only so a
	// disconnect can clear an indicator the client never retracted.
	typingMu sync.Mutex
	typing   map[uuid.UUID]*typingState
}

type typingState struct {
	group    bool
	personal map[string]bool // recipient identity IDs with an open indicator
}

func NewRouter(registry *presence.Registry, persister *Persister, logger zerolog.Logger) *Router {
	return &Router{
		registry:  registry,
		persister: persister,
		log:       logger,
		typing:    make(map[uuid.UUID]*typingState),
	}
}

// stamp returns the server receipt time in Unix milliseconds, clamped so
// sequential sends observe non-decreasing timestamps even if the clock
// steps backwards.
func (r *Router) stamp() int64 {
	r.tsMu.Lock()
	defer r.tsMu.Unlock()
	now := time.Now().UnixMilli()
	if now < r.lastTS {
		now = r.lastTS
	}
	r.lastTS = now
	return now
}

// OnJoin registers the session, announces it to every other session, then
// pushes the authoritative presence list to all sessions including the
// joiner. The joiner must see a list that already includes itself; the
// others see the join announcement before the refreshed list.
func (r *Router) OnJoin(handle uuid.UUID, identity models.Identity, sink presence.Sink) error {
	sess, displaced, err := r.registry.Register(handle, identity, sink)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("session", handle.String()).
			Str("identity", identity.ID).
			Msg("join rejected")
		return err
	}

	if displaced != nil {
		metrics.SessionsEvicted.Inc()
		r.log.Info().
			Str("identity", identity.ID).
			Str("old_session", displaced.Handle.String()).
			Str("new_session", handle.String()).
			Msg("identity reconnected, evicting old session")
		displaced.Evict("replaced by a newer connection")
	}

	metrics.SessionsOnline.Set(float64(r.registry.Len()))
	r.log.Info().
		Str("session", handle.String()).
		Str("identity", identity.ID).
		Str("name", identity.Name).
		Msg("session joined")

	joined := models.Event{Type: models.EventUserJoined, Data: identity}
	for _, other := range r.registry.Snapshot() {
		if other.Handle == sess.Handle {
			continue
		}
		r.deliver(other, joined)
	}

	r.pushUserList()
	return nil
}

// OnLeave unregisters the session. Only if an identity was actually
// present does it announce the departure and refresh the presence list;
// a second leave for the same session is a silent no-op.
func (r *Router) OnLeave(handle uuid.UUID) {
	identity, err := r.registry.Unregister(handle)
	if err != nil {
		// Already gone. Idempotent by design of the registry.
		r.log.Debug().Str("session", handle.String()).Msg("leave for absent session")
		return
	}

	metrics.SessionsOnline.Set(float64(r.registry.Len()))
	r.log.Info().
		Str("session", handle.String()).
		Str("identity", identity.ID).
		Msg("session left")

	r.clearTyping(handle, identity)

	left := models.Event{Type: models.EventUserLeft, Data: identity}
	for _, sess := range r.registry.Snapshot() {
		r.deliver(sess, left)
	}

	r.pushUserList()
}

// OnGroupSend builds a group envelope with a server-assigned ID and
// timestamp, dispatches it to the store and broadcasts it to every joined
// session including the sender, who needs the assigned ID and timestamp
// for reconciliation.
func (r *Router) OnGroupSend(handle uuid.UUID, text string, attachment *models.Attachment) (*models.Envelope, error) {
	sess, ok := r.registry.Get(handle)
	if !ok {
		r.log.Warn().Str("session", handle.String()).Msg("group send from unknown sender, dropping")
		return nil, ErrUnknownSender
	}

	env := &models.Envelope{
		ID:         ulid.Make().String(),
		Kind:       models.KindGroup,
		Sender:     sess.Identity,
		Text:       text,
		Attachment: attachment,
		Timestamp:  r.stamp(),
	}

	r.persister.Dispatch(env)
	metrics.MessagesRouted.WithLabelValues(string(models.KindGroup)).Inc()

	ev := models.Event{Type: models.EventNewMessage, Data: env}
	for _, target := range r.registry.Snapshot() {
		r.deliver(target, ev)
	}
	return env, nil
}

// OnPersonalSend builds a personal envelope keyed by the conversation of
// the two identities, dispatches it to the store and delivers it to the
// recipient session if one is online. The sender always receives the echo:
// it is the only copy its UI displays. An offline recipient gets the
// message from the store when it next loads the conversation; durability
// is the offline-delivery mechanism.
func (r *Router) OnPersonalSend(handle uuid.UUID, toIdentityID, text string, attachment *models.Attachment) (*models.Envelope, error) {
	sess, ok := r.registry.Get(handle)
	if !ok {
		r.log.Warn().Str("session", handle.String()).Msg("personal send from unknown sender, dropping")
		return nil, ErrUnknownSender
	}

	if toIdentityID == sess.Identity.ID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidRecipient)
	}
	key, err := conversation.Key(sess.Identity.ID, toIdentityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}

	env := &models.Envelope{
		ID:              ulid.Make().String(),
		Kind:            models.KindPersonal,
		Sender:          sess.Identity,
		RecipientID:     toIdentityID,
		ConversationKey: key,
		Text:            text,
		Attachment:      attachment,
		Timestamp:       r.stamp(),
	}

	r.persister.Dispatch(env)
	metrics.MessagesRouted.WithLabelValues(string(models.KindPersonal)).Inc()

	ev := models.Event{Type: models.EventNewPersonalMessage, Data: env}
	if recipient, online := r.registry.LookupByIdentity(toIdentityID); online {
		r.deliver(recipient, ev)
	}
	r.deliver(sess, ev)
	return env, nil
}

// OnTyping broadcasts a group typing indicator to every other session.
// Nothing is persisted; clearing the indicator is the client's job.
func (r *Router) OnTyping(handle uuid.UUID, isTyping bool) error {
	sess, ok := r.registry.Get(handle)
	if !ok {
		return ErrUnknownSender
	}

	r.trackTyping(handle, "", isTyping)
	metrics.TypingEvents.WithLabelValues("group").Inc()

	ev := models.Event{Type: models.EventUserTyping, Data: models.TypingNotice{
		FromID:   sess.Identity.ID,
		FromName: sess.Identity.Name,
		IsTyping: isTyping,
	}}
	for _, other := range r.registry.Snapshot() {
		if other.Handle == handle {
			continue
		}
		r.deliver(other, ev)
	}
	return nil
}

// OnPersonalTyping routes a typing indicator to the resolved recipient
// session only. Offline recipient: no-op.
func (r *Router) OnPersonalTyping(handle uuid.UUID, toIdentityID string, isTyping bool) error {
	sess, ok := r.registry.Get(handle)
	if !ok {
		return ErrUnknownSender
	}
	if toIdentityID == "" || toIdentityID == sess.Identity.ID {
		return ErrInvalidRecipient
	}

	r.trackTyping(handle, toIdentityID, isTyping)
	metrics.TypingEvents.WithLabelValues("personal").Inc()

	recipient, online := r.registry.LookupByIdentity(toIdentityID)
	if !online {
		return nil
	}
	r.deliver(recipient, models.Event{Type: models.EventPersonalTyping, Data: models.TypingNotice{
		FromID:   sess.Identity.ID,
		FromName: sess.Identity.Name,
		IsTyping: isTyping,
	}})
	return nil
}

// Heartbeat records transport keepalive. Advisory only: it never triggers
// disconnection logic.
func (r *Router) Heartbeat(handle uuid.UUID) {
	r.registry.Touch(handle)
}

// pushUserList sends the authoritative presence snapshot to all sessions.
func (r *Router) pushUserList() {
	list := models.Event{Type: models.EventUserList, Data: r.registry.ListIdentities()}
	for _, sess := range r.registry.Snapshot() {
		r.deliver(sess, list)
	}
}

// deliver pushes one event to one session. A dead sink mid-broadcast is
// logged and counted, never propagated, so the broadcast loop survives.
func (r *Router) deliver(sess *presence.Session, ev models.Event) {
	if err := sess.Deliver(ev); err != nil {
		metrics.DeliveryFailures.Inc()
		r.log.Warn().
			Err(err).
			Str("session", sess.Handle.String()).
			Str("event", string(ev.Type)).
			Msg("delivery failed")
	}
}

// trackTyping remembers open indicators per session so clearTyping can
// retract them when the session disconnects mid-type.
func (r *Router) trackTyping(handle uuid.UUID, toIdentityID string, isTyping bool) {
	r.typingMu.Lock()
	defer r.typingMu.Unlock()

	st := r.typing[handle]
	if st == nil {
		if !isTyping {
			return
		}
		st = &typingState{personal: make(map[string]bool)}
		r.typing[handle] = st
	}
	if toIdentityID == "" {
		st.group = isTyping
	} else if isTyping {
		st.personal[toIdentityID] = true
	} else {
		delete(st.personal, toIdentityID)
	}
	if !st.group && len(st.personal) == 0 {
		delete(r.typing, handle)
	}
}

// clearTyping retracts any indicator the leaving session still had open.
func (r *Router) clearTyping(handle uuid.UUID, identity models.Identity) {
	r.typingMu.Lock()
	st := r.typing[handle]
	delete(r.typing, handle)
	r.typingMu.Unlock()

	if st == nil {
		return
	}

	notice := models.TypingNotice{FromID: identity.ID, FromName: identity.Name, IsTyping: false}
	if st.group {
		ev := models.Event{Type: models.EventUserTyping, Data: notice}
		for _, sess := range r.registry.Snapshot() {
			r.deliver(sess, ev)
		}
	}
	for recipientID := range st.personal {
		if recipient, online := r.registry.LookupByIdentity(recipientID); online {
			r.deliver(recipient, models.Event{Type: models.EventPersonalTyping, Data: notice})
		}
	}
}
