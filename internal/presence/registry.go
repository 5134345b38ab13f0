// Package presence holds the registry of connected identities: the single
// source of truth for who is online.
package presence

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsechat/relay/internal/models"
)

var (
	// ErrDuplicateSession means a handle was registered twice. The
	// transport guarantees unique handles, so this is an invariant
	// violation, fatal for the offending session.
	ErrDuplicateSession = errors.New("presence: session handle already registered")

	// ErrNotFound is returned when a handle is not registered.
	// Unregistering an absent handle is a no-op reported as ErrNotFound,
	// never a failure that aborts shutdown.
	ErrNotFound = errors.New("presence: session not found")
)

// Registry maps transport sessions to identities. It keeps a primary index
// by session handle and a secondary index by identity ID used for
// personal-message targeting. All mutation is serialized behind one mutex;
// reads used for delivery see a consistent snapshot.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	byIdentity map[string]uuid.UUID
	nextSeq    uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[uuid.UUID]*Session),
		byIdentity: make(map[string]uuid.UUID),
	}
}

// Register inserts a session into both indices and returns it. If the
// identity already has a live session, the new one wins the secondary
// index and the displaced session is returned so the caller can evict it.
func (r *Registry) Register(handle uuid.UUID, identity models.Identity, sink Sink) (*Session, *Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[handle]; exists {
		return nil, nil, ErrDuplicateSession
	}

	var displaced *Session
	if oldHandle, ok := r.byIdentity[identity.ID]; ok {
		displaced = r.sessions[oldHandle]
		delete(r.sessions, oldHandle)
	}

	r.nextSeq++
	now := time.Now()
	sess := &Session{
		Handle:   handle,
		Identity: identity,
		JoinedAt: now,
		LastSeen: now,
		seq:      r.nextSeq,
		sink:     sink,
	}
	r.sessions[handle] = sess
	r.byIdentity[identity.ID] = handle

	return sess, displaced, nil
}

// Unregister removes a session from both indices and returns the identity
// that was present so callers can announce the departure.
func (r *Registry) Unregister(handle uuid.UUID) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[handle]
	if !ok {
		return models.Identity{}, ErrNotFound
	}
	delete(r.sessions, handle)

	// The secondary index may already point at a newer session for the
	// same identity; only clear it if it is still ours.
	if current, ok := r.byIdentity[sess.Identity.ID]; ok && current == handle {
		delete(r.byIdentity, sess.Identity.ID)
	}

	return sess.Identity, nil
}

// Get returns the session for a handle.
func (r *Registry) Get(handle uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[handle]
	return sess, ok
}

// LookupByIdentity resolves an identity ID to its delivery session.
func (r *Registry) LookupByIdentity(identityID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.byIdentity[identityID]
	if !ok {
		return nil, false
	}
	sess, ok := r.sessions[handle]
	return sess, ok
}

// ListIdentities returns a copy of the connected identities ordered by
// join time. Callers may hold it across registry mutations.
func (r *Registry) ListIdentities() []models.Identity {
	sessions := r.Snapshot()
	identities := make([]models.Identity, len(sessions))
	for i, sess := range sessions {
		identities[i] = sess.Identity
	}
	return identities
}

// Snapshot returns a copy of the live sessions ordered by join time.
// Broadcast loops iterate the snapshot so a concurrent disconnect cannot
// tear the iteration.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].seq < sessions[j].seq
	})
	return sessions
}

// Touch records a heartbeat for a session. Absent handles are ignored.
func (r *Registry) Touch(handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[handle]; ok {
		sess.LastSeen = time.Now()
	}
}

// Len reports the number of live joined sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
