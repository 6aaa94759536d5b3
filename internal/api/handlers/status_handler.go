package handlers

import (
	"net/http"

	"github.com/ozgunk/social-feed-be/internal/monitoring"
)

// StatusHandler serves the latest host resource snapshot.
type StatusHandler struct {
	stats *monitoring.StatUpdater
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(stats *monitoring.StatUpdater) *StatusHandler {
	return &StatusHandler{stats: stats}
}

// Get returns the most recent system stats.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.Snapshot())
}
