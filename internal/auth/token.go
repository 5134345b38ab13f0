package auth

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pulsechat/relay/internal/models"
)

// TokenIssuer exchanges a successful authentication for an opaque bearer
// token the transport presents on subsequent requests. Tokens live as long
// as the process; there is no refresh protocol.
type TokenIssuer struct {
	mu     sync.RWMutex
	tokens map[string]models.Identity
}

func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{tokens: make(map[string]models.Identity)}
}

// Issue mints a token bound to an identity.
func (t *TokenIssuer) Issue(identity models.Identity) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.tokens[token] = identity
	t.mu.Unlock()
	return token
}

// Lookup resolves a token back to its identity.
func (t *TokenIssuer) Lookup(token string) (models.Identity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	identity, ok := t.tokens[token]
	return identity, ok
}

// Revoke forgets a token.
func (t *TokenIssuer) Revoke(token string) {
	t.mu.Lock()
	delete(t.tokens, token)
	t.mu.Unlock()
}
