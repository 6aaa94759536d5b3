package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ozgunk/social-feed-be/internal/auth"
	"github.com/ozgunk/social-feed-be/internal/services"
	"github.com/rs/zerolog/log"
)

// maxUploadSize bounds in-memory multipart parsing.
const maxUploadSize = 10 << 20 // 10 MiB

// FeedHandler handles HTTP requests for the post feed.
type FeedHandler struct {
	service services.PostServiceProvider
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(service services.PostServiceProvider) *FeedHandler {
	return &FeedHandler{service: service}
}

// GetPosts returns one page of the feed.
func (h *FeedHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if n, err := strconv.Atoi(pageStr); err == nil {
			page = n
		}
	}

	paged, err := h.service.List(page, services.DefaultPageSize)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("Failed to list posts")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Fetched posts successfully.",
		"posts":      paged.Posts,
		"totalItems": paged.TotalItems,
	})
}

// CreatePost creates a new post from a multipart form with an image upload.
func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header := formImage(r)
	if file != nil {
		defer file.Close()
	}

	post, err := h.service.Create(claims.UserID, r.FormValue("title"), r.FormValue("content"), file, header)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to create post")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post created successfully!",
		"post":    post,
		"creator": post.Creator,
	})
}

// GetPost returns a single post by id.
func (h *FeedHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "postId")
	post, err := h.service.Get(id)
	if err != nil {
		log.Warn().Err(err).Str("post_id", id).Msg("Failed to get post")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post fetched.",
		"post":    post,
	})
}

// UpdatePost edits a post. The client sends either a multipart form with a
// fresh image upload, or JSON keeping the stored image URL.
func (h *FeedHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "postId")

	var title, content, imageURL string
	var file multipart.File
	var header *multipart.FileHeader

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		title = r.FormValue("title")
		content = r.FormValue("content")
		imageURL = r.FormValue("image")
		file, header = formImage(r)
		if file != nil {
			defer file.Close()
		}
	} else {
		var payload struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Image   string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		title, content, imageURL = payload.Title, payload.Content, payload.Image
	}

	post, err := h.service.Update(claims.UserID, id, title, content, imageURL, file, header)
	if err != nil {
		log.Warn().Err(err).Str("post_id", id).Str("user_id", claims.UserID).Msg("Failed to update post")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post updated.",
		"post":    post,
	})
}

// DeletePost deletes a post and its image.
func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "postId")

	if err := h.service.Delete(claims.UserID, id); err != nil {
		log.Warn().Err(err).Str("post_id", id).Str("user_id", claims.UserID).Msg("Failed to delete post")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted."})
}

// formImage pulls the optional image upload out of a parsed multipart form.
func formImage(r *http.Request) (multipart.File, *multipart.FileHeader) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil
	}
	return file, header
}
