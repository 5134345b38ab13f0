package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pulsechat/relay/internal/models"
)

// MemoryStore keeps envelopes in process memory. Used in development when
// no backend is configured, and throughout the tests.
type MemoryStore struct {
	mu        sync.RWMutex
	envelopes []models.Envelope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, env *models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = append(s.envelopes, *env)
	return nil
}

func (s *MemoryStore) QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error) {
	return s.query(func(env *models.Envelope) bool { return env.Kind == kind }, limit)
}

func (s *MemoryStore) QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	return s.query(func(env *models.Envelope) bool {
		return env.Kind == models.KindPersonal && env.ConversationKey == key
	}, limit)
}

func (s *MemoryStore) QueryConversationKeys(ctx context.Context, identityID string) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]bool)
	for i := range s.envelopes {
		env := &s.envelopes[i]
		if env.Kind != models.KindPersonal {
			continue
		}
		if env.Sender.ID == identityID || env.RecipientID == identityID {
			seen[env.ConversationKey] = true
		}
	}
	s.mu.RUnlock()

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) query(match func(*models.Envelope) bool, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	out := make([]models.Envelope, 0)
	for i := range s.envelopes {
		if match(&s.envelopes[i]) {
			out = append(out, s.envelopes[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}
