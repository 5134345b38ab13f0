package handlers

import (
	"net/http"

	"github.com/pulsechat/relay/internal/models"
)

// PresenceResponse is the snapshot of connected identities.
type PresenceResponse struct {
	Users []models.Identity `json:"users"`
	Count int               `json:"count"`
}

// Presence returns who is online right now. The list is a copy; it does
// not change under the caller.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	users := h.registry.ListIdentities()
	h.JSON(w, http.StatusOK, PresenceResponse{Users: users, Count: len(users)})
}
