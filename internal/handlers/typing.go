package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TypingRequest is the body of typing indicator posts.
type TypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

// Typing broadcasts a group typing indicator to every other session.
// Clearing is the client's responsibility after its inactivity window.
func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.Guard(handle); err != nil {
		h.routingError(w, err)
		return
	}

	var req TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.router.OnTyping(handle, req.IsTyping); err != nil {
		h.routingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PersonalTyping routes a typing indicator to one recipient only.
func (h *Handler) PersonalTyping(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}
	if err := h.lifecycle.Guard(handle); err != nil {
		h.routingError(w, err)
		return
	}

	var req TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.router.OnPersonalTyping(handle, chi.URLParam(r, "id"), req.IsTyping); err != nil {
		h.routingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
