package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulsechat/relay/internal/api/middleware"
	"github.com/pulsechat/relay/internal/auth"
	"github.com/pulsechat/relay/internal/models"
)

// LoginResponse carries the bearer token for the authenticated identity.
type LoginResponse struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"identity"`
}

// Login authenticates credentials and issues a bearer token. Called once
// per session before the events stream is opened.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if creds.Email == "" || creds.Password == "" {
		h.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	identity, err := h.provider.Authenticate(r.Context(), creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Error(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	h.JSON(w, http.StatusOK, LoginResponse{
		Token:    h.issuer.Issue(identity),
		Identity: identity,
	})
}

// Logout revokes the bearer token. An open events stream stays up until
// it closes; only new requests are rejected.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.issuer.Revoke(middleware.BearerToken(r))
	h.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
