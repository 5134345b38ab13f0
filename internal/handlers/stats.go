package handlers

import (
	"net/http"
	"time"
)

// StatsResponse summarizes the relay's live state.
type StatsResponse struct {
	SessionsOnline int    `json:"sessions_online"`
	Uptime         string `json:"uptime"`
	Version        string `json:"version"`
}

// Stats reports live session counts and uptime.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, StatsResponse{
		SessionsOnline: h.registry.Len(),
		Uptime:         time.Since(h.startedAt).Round(time.Second).String(),
		Version:        version,
	})
}
