package services

import (
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/ozgunk/social-feed-be/internal/models"
	ws "github.com/ozgunk/social-feed-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const minFieldLength = 5

// DefaultPageSize is the number of posts per feed page.
const DefaultPageSize = 2

// PostServiceProvider defines the interface for the feed.
type PostServiceProvider interface {
	List(page, perPage int) (models.PagedPosts, error)
	Create(userID, title, content string, file multipart.File, header *multipart.FileHeader) (models.Post, error)
	Get(id string) (models.Post, error)
	Update(userID, id, title, content, imageURL string, file multipart.File, header *multipart.FileHeader) (models.Post, error)
	Delete(userID, id string) error
	ReferencedAssets() (map[string]bool, error)
}

// PostService owns post persistence and the feed rules: field validation,
// owner-only mutation, and the image asset lifecycle tied to each post.
type PostService struct {
	db       *sql.DB
	assets   AssetServiceProvider
	eventSvc EventServiceProvider
	hub      *ws.Hub
}

// NewPostService creates a new PostService. hub may be nil when no live
// feed channel is wanted (tests).
func NewPostService(db *sql.DB, assets AssetServiceProvider, eventSvc EventServiceProvider, hub *ws.Hub) *PostService {
	return &PostService{db: db, assets: assets, eventSvc: eventSvc, hub: hub}
}

// List returns one page of the feed, newest first, plus the total count.
// Pages are 1-indexed; values below 1 are clamped, there is no upper bound.
func (s *PostService) List(page, perPage int) (models.PagedPosts, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&total); err != nil {
		return models.PagedPosts{}, err
	}

	rows, err := s.db.Query(`
		SELECT p.id, p.title, p.content, p.image_url, p.creator_id, u.name, p.created_at
		FROM posts p JOIN users u ON u.id = p.creator_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`, perPage, (page-1)*perPage)
	if err != nil {
		return models.PagedPosts{}, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.Creator.ID, &post.Creator.Name, &post.CreatedAt); err != nil {
			return models.PagedPosts{}, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return models.PagedPosts{}, err
	}

	return models.PagedPosts{Posts: posts, TotalItems: total}, nil
}

// Create validates the input, stores the uploaded image and persists a new
// post owned by userID.
func (s *PostService) Create(userID, title, content string, file multipart.File, header *multipart.FileHeader) (models.Post, error) {
	if violations := validatePostFields(title, content); len(violations) > 0 {
		return models.Post{}, apperr.Validation("Validation failed.", violations...)
	}
	if file == nil || header == nil {
		return models.Post{}, apperr.Validation("No image registered.",
			apperr.Violation{Param: "image", Msg: "An image is required."})
	}

	imageURL, err := s.assets.Store(file, header)
	if err != nil {
		return models.Post{}, err
	}

	creator, err := s.creatorSummary(userID)
	if err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		ID:       uuid.New().String(),
		Title:    strings.TrimSpace(title),
		Content:  strings.TrimSpace(content),
		ImageURL: imageURL,
		Creator:  creator,
	}

	stmt, err := s.db.Prepare("INSERT INTO posts(id, title, content, image_url, creator_id) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.Post{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(post.ID, post.Title, post.Content, post.ImageURL, userID); err != nil {
		return models.Post{}, err
	}

	// Re-read for the store-generated timestamp.
	stored, err := s.Get(post.ID)
	if err != nil {
		return models.Post{}, err
	}

	s.recordEvent("post.created", "Post "+stored.ID+" created.", stored.ID)
	s.broadcast("post.created", stored)
	return stored, nil
}

// Get retrieves a single post by id.
func (s *PostService) Get(id string) (models.Post, error) {
	var post models.Post
	row := s.db.QueryRow(`
		SELECT p.id, p.title, p.content, p.image_url, p.creator_id, u.name, p.created_at
		FROM posts p JOIN users u ON u.id = p.creator_id
		WHERE p.id = ?`, id)
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.Creator.ID, &post.Creator.Name, &post.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Post{}, apperr.NotFound("Could not find a post.")
		}
		return models.Post{}, err
	}
	return post, nil
}

// Update replaces a post's title, content and image. Only the creator may
// update; existence is checked before ownership. A freshly uploaded file
// wins over a passed image URL. When the image reference changes, the old
// asset is cleaned up in the background.
func (s *PostService) Update(userID, id, title, content, imageURL string, file multipart.File, header *multipart.FileHeader) (models.Post, error) {
	if violations := validatePostFields(title, content); len(violations) > 0 {
		return models.Post{}, apperr.Validation("Validation failed.", violations...)
	}

	post, err := s.Get(id)
	if err != nil {
		return models.Post{}, err
	}
	if !canModify(post, userID) {
		return models.Post{}, apperr.Forbidden("Not authorized to edit this post.")
	}

	newImageURL := imageURL
	if file != nil && header != nil {
		newImageURL, err = s.assets.Store(file, header)
		if err != nil {
			return models.Post{}, err
		}
	}
	if newImageURL == "" {
		return models.Post{}, apperr.Validation("No image detected.",
			apperr.Violation{Param: "image", Msg: "An image is required."})
	}

	if newImageURL != post.ImageURL {
		old := post.ImageURL
		go s.assets.Remove(old)
	}

	post.Title = strings.TrimSpace(title)
	post.Content = strings.TrimSpace(content)
	post.ImageURL = newImageURL

	_, err = s.db.Exec("UPDATE posts SET title = ?, content = ?, image_url = ? WHERE id = ?",
		post.Title, post.Content, post.ImageURL, post.ID)
	if err != nil {
		return models.Post{}, err
	}

	s.recordEvent("post.updated", "Post "+post.ID+" updated.", post.ID)
	s.broadcast("post.updated", post)
	return post, nil
}

// Delete removes a post and its image asset. Only the creator may delete;
// existence is checked before ownership.
func (s *PostService) Delete(userID, id string) error {
	post, err := s.Get(id)
	if err != nil {
		return err
	}
	if !canModify(post, userID) {
		return apperr.Forbidden("Not authorized to delete this post.")
	}

	if _, err := s.db.Exec("DELETE FROM posts WHERE id = ?", id); err != nil {
		return err
	}

	go s.assets.Remove(post.ImageURL)

	s.recordEvent("post.deleted", "Post "+post.ID+" deleted.", post.ID)
	s.broadcast("post.deleted", post)
	return nil
}

// ReferencedAssets returns the set of image references held by live posts.
func (s *PostService) ReferencedAssets() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT image_url FROM posts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string]bool)
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs[ref] = true
	}
	return refs, rows.Err()
}

func (s *PostService) creatorSummary(userID string) (models.Creator, error) {
	var creator models.Creator
	err := s.db.QueryRow("SELECT id, name FROM users WHERE id = ?", userID).Scan(&creator.ID, &creator.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Creator{}, apperr.NotFound("User not found.")
		}
		return models.Creator{}, err
	}
	return creator, nil
}

// canModify is the ownership predicate: only the creator may mutate a post.
func canModify(post models.Post, userID string) bool {
	return post.Creator.ID == userID
}

func validatePostFields(title, content string) []apperr.Violation {
	var violations []apperr.Violation
	if len(strings.TrimSpace(title)) < minFieldLength {
		violations = append(violations, apperr.Violation{Param: "title", Msg: "Title must be at least 5 characters."})
	}
	if len(strings.TrimSpace(content)) < minFieldLength {
		violations = append(violations, apperr.Violation{Param: "content", Msg: "Content must be at least 5 characters."})
	}
	return violations
}

func (s *PostService) recordEvent(eventType, message, postID string) {
	if s.eventSvc == nil {
		return
	}
	if err := s.eventSvc.Record(eventType, "info", message, &postID); err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("Failed to record event")
	}
}

func (s *PostService) broadcast(action string, post models.Post) {
	if s.hub == nil {
		return
	}
	msg, err := json.Marshal(ws.Message{Action: action, Payload: post})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode broadcast message")
		return
	}
	s.hub.Broadcast <- msg
}
