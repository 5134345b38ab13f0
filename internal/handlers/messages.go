package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pulsechat/relay/internal/models"
)

const maxMessageBytes = 4096

// SendMessageRequest is the body of both group and personal sends.
type SendMessageRequest struct {
	Text string             `json:"text"`
	File *models.Attachment `json:"file,omitempty"`
}

// SendMessageResponse returns the server-assigned ID and timestamp.
type SendMessageResponse struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// MessageListResponse is the history response.
type MessageListResponse struct {
	Messages []models.Envelope `json:"messages"`
}

// validateSend checks a send request body. A message needs text, a file,
// or both.
func (h *Handler) validateSend(w http.ResponseWriter, req *SendMessageRequest) bool {
	if req.Text == "" && req.File == nil {
		h.Error(w, http.StatusBadRequest, "text or file is required")
		return false
	}
	if len(req.Text) > maxMessageBytes {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return false
	}
	if req.File != nil && req.File.URL == "" {
		h.Error(w, http.StatusBadRequest, "file url is required")
		return false
	}
	return true
}

// SendMessage routes a group message to every joined session.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.Guard(handle); err != nil {
		h.routingError(w, err)
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

	env, err := h.router.OnGroupSend(handle, req.Text, req.File)
	if err != nil {
		h.routingError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{ID: env.ID, Timestamp: env.Timestamp})
}

// GetMessages returns group history in ascending timestamp order.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.QueryByKind(r.Context(), models.KindGroup, queryLimit(r))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	h.JSON(w, http.StatusOK, MessageListResponse{Messages: messages})
}
