package models

import "time"

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "post.created", "assets.swept"
	Level     string    `json:"level"` // e.g. "info", "warn", "error"
	Message   string    `json:"message"`
	PostID    *string   `json:"postId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
