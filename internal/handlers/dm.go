package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsechat/relay/internal/api/middleware"
	"github.com/pulsechat/relay/internal/conversation"
)

// SendDM routes a personal message to the recipient's session, if online,
// and echoes it to the sender. An offline recipient reads it later from
// the store by conversation key.
func (h *Handler) SendDM(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.Guard(handle); err != nil {
		h.routingError(w, err)
		return
	}

	toID := chi.URLParam(r, "id")
	if toID == "" {
		h.Error(w, http.StatusBadRequest, "recipient id is required")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.validateSend(w, &req) {
		return
	}

	env, err := h.router.OnPersonalSend(handle, toID, req.Text, req.File)
	if err != nil {
		h.routingError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{ID: env.ID, Timestamp: env.Timestamp})
}

// GetDMs returns the personal conversation between the authenticated
// identity and the identity in the URL, ascending by timestamp.
func (h *Handler) GetDMs(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	otherID := chi.URLParam(r, "id")
	key, err := conversation.Key(identity.ID, otherID)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid conversation participant")
		return
	}

	messages, err := h.store.QueryByConversationKey(r.Context(), key, queryLimit(r))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	h.JSON(w, http.StatusOK, MessageListResponse{Messages: messages})
}
