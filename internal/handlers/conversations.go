package handlers

import (
	"net/http"

	"github.com/pulsechat/relay/internal/api/middleware"
)

// ConversationsResponse lists the personal conversations the identity
// participates in, by conversation key.
type ConversationsResponse struct {
	Conversations []string `json:"conversations"`
}

// Conversations returns which personal conversations exist for the
// authenticated identity, discovered from the message store. Clients use
// it to populate the thread list before fetching any history.
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	keys, err := h.store.QueryConversationKeys(r.Context(), identity.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch conversations")
		return
	}

	h.JSON(w, http.StatusOK, ConversationsResponse{Conversations: keys})
}
