package models

import "time"

// Post is a single feed entry. The JSON field names match what the
// single-page client consumes, including the mongo-style "_id".
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
}

// Creator is the slim owner summary embedded in post responses.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// PagedPosts bundles one page of the feed with the total item count the
// client's paginator needs.
type PagedPosts struct {
	Posts      []Post `json:"posts"`
	TotalItems int    `json:"totalItems"`
}
