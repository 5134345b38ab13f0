package handlers

import (
	"net/http"

	"github.com/pulsechat/relay/internal/api/middleware"
)

// Join completes the handshake for a connected session, binding the
// authenticated identity to it and announcing the arrival.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Join(handle, identity); err != nil {
		h.routingError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// Leave disconnects the session explicitly. The events stream closing has
// the same effect; doing both is harmless.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.sessionHandle(w, r)
	if !ok {
		return
	}

	h.lifecycle.Disconnect(handle)
	h.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}
