package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pulsechat/relay/internal/auth"
	"github.com/pulsechat/relay/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware resolves bearer tokens to identities.
type AuthMiddleware struct {
	issuer *auth.TokenIssuer
}

func NewAuthMiddleware(issuer *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, ok := m.issuer.Lookup(token)
		if !ok {
			jsonError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from the Authorization header, falling
// back to the access_token query parameter for EventSource clients that
// cannot set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

// GetIdentityFromContext returns the authenticated identity, if any.
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
