package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError maps a classified error to its status and the {message, data}
// envelope; anything unclassified becomes a 500.
func respondError(w http.ResponseWriter, err error) {
	apiErr := apperr.FromErr(err)
	if apiErr.Status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Unexpected error")
	}
	respondJSON(w, apiErr.Status, apiErr)
}
