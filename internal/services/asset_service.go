package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ozgunk/social-feed-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

// allowedImageTypes are the upload mime types the feed accepts.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// AssetServiceProvider defines the interface for image asset management.
type AssetServiceProvider interface {
	Store(file multipart.File, header *multipart.FileHeader) (string, error)
	Remove(ref string)
	Sweep(referenced map[string]bool, graceAge time.Duration) int
}

// AssetService persists uploaded images under a single root directory and
// cleans them up when they are superseded or orphaned.
type AssetService struct {
	root string
}

// NewAssetService creates a new AssetService rooted at imagesPath.
func NewAssetService(imagesPath string) *AssetService {
	if err := os.MkdirAll(imagesPath, 0755); err != nil {
		log.Error().Err(err).Str("path", imagesPath).Msg("Failed to create images directory")
	}
	return &AssetService{root: imagesPath}
}

// Store writes an uploaded image to disk and returns its reference, the
// URL path the stored file is served under. The filename gets a random
// prefix so concurrent uploads of the same name never collide.
func (s *AssetService) Store(file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return "", apperr.UnsupportedMedia("Only png, jpg and jpeg images are allowed.")
	}

	name := uuid.New().String() + "-" + sanitizeFilename(header.Filename)
	dst, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("could not create asset file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name()) // Clean up partial file
		return "", fmt.Errorf("could not write asset file: %w", err)
	}

	return "images/" + name, nil
}

// Remove deletes the file behind a reference. Cleanup is best-effort:
// failures are logged and never propagated to the caller.
func (s *AssetService) Remove(ref string) {
	name, ok := s.resolve(ref)
	if !ok {
		log.Warn().Str("asset", ref).Msg("Refusing to remove asset outside images root")
		return
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		log.Warn().Err(err).Str("asset", ref).Msg("Failed to remove asset")
		return
	}
	log.Info().Str("asset", ref).Msg("Removed asset")
}

// Sweep deletes files under the root that are not referenced by any post
// and are older than graceAge. Returns the number of files removed.
func (s *AssetService) Sweep(referenced map[string]bool, graceAge time.Duration) int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		log.Error().Err(err).Str("path", s.root).Msg("Sweep: failed to read images directory")
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-graceAge)
	for _, entry := range entries {
		if entry.IsDir() || referenced["images/"+entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			// Young files may belong to an in-flight create.
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil {
			log.Warn().Err(err).Str("asset", entry.Name()).Msg("Sweep: failed to remove orphaned asset")
			continue
		}
		removed++
	}
	return removed
}

// resolve maps a reference back to a bare filename inside the root,
// rejecting anything that would escape it.
func (s *AssetService) resolve(ref string) (string, bool) {
	name := strings.TrimPrefix(ref, "images/")
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return name, true
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, " ", "_")
}
