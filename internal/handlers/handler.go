package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/auth"
	"github.com/pulsechat/relay/internal/presence"
	"github.com/pulsechat/relay/internal/relay"
	"github.com/pulsechat/relay/internal/store"
)

// SessionHeader carries the session handle issued by the events stream.
const SessionHeader = "X-Relay-Session"

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	lifecycle *relay.Lifecycle
	router    *relay.Router
	registry  *presence.Registry
	store     store.MessageStore
	provider  auth.Provider
	issuer    *auth.TokenIssuer
	log       zerolog.Logger

	sessionBuffer int
	startedAt     time.Time
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(
	lifecycle *relay.Lifecycle,
	router *relay.Router,
	registry *presence.Registry,
	st store.MessageStore,
	provider auth.Provider,
	issuer *auth.TokenIssuer,
	logger zerolog.Logger,
	sessionBuffer int,
) *Handler {
	return &Handler{
		lifecycle:     lifecycle,
		router:        router,
		registry:      registry,
		store:         st,
		provider:      provider,
		issuer:        issuer,
		log:           logger,
		sessionBuffer: sessionBuffer,
		startedAt:     time.Now(),
	}
}

// Issuer exposes the token issuer for the auth middleware.
func (h *Handler) Issuer() *auth.TokenIssuer {
	return h.issuer
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sessionHandle extracts and validates the session header.
func (h *Handler) sessionHandle(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		h.Error(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return uuid.Nil, false
	}
	handle, err := uuid.Parse(raw)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid session handle format")
		return uuid.Nil, false
	}
	return handle, true
}

// routingError maps relay errors onto HTTP statuses. Backend failures
// degrade silently from the sender's perspective; only client-caused
// failures surface here.
func (h *Handler) routingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relay.ErrUnknownSender):
		h.Error(w, http.StatusNotFound, "unknown session")
	case errors.Is(err, relay.ErrNotJoined):
		h.Error(w, http.StatusConflict, "session has not joined")
	case errors.Is(err, relay.ErrInvalidRecipient):
		h.Error(w, http.StatusUnprocessableEntity, "invalid recipient")
	case errors.Is(err, presence.ErrDuplicateSession):
		h.Error(w, http.StatusConflict, "session already registered")
	default:
		h.Error(w, http.StatusInternalServerError, "routing failed")
	}
}

// queryLimit parses the limit query parameter with the store default.
func queryLimit(r *http.Request) int {
	limit := store.DefaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
