package websocket

// Message defines the structure for websocket messages. Action names the
// feed change ("post.created", "post.updated", "post.deleted",
// "system.stats"); Payload carries the affected entity.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}
