// Package cache persists the crawl's key→record documents. Each document is
// a flat JSON object stored whole under its own name; documents are
// independent of one another and are never invalidated automatically.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/ordered"
	"github.com/JakeFAU/supermovie/internal/storage"
)

// Document names used by the crawl.
const (
	DocumentMovieIndex = "movie_url.json"
	DocumentMovies     = "movie.json"
	DocumentCasts      = "cast.json"
	DocumentFilmScores = "cast_movie.json"
)

const contentType = "application/json"

// Store loads and saves named documents through a BlobStore.
type Store struct {
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewStore wraps blobs.
func NewStore(blobs storage.BlobStore, logger *zap.Logger) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blobs: blobs, logger: logger}, nil
}

// Load reads the named document. A missing, unreadable, or corrupt document
// yields an empty mapping; Load never fails.
func Load[V any](ctx context.Context, s *Store, name string) *ordered.Map[V] {
	data, err := s.blobs.GetObject(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("cache document absent", zap.String("document", name))
		} else {
			s.logger.Warn("cache document unreadable; starting empty",
				zap.String("document", name), zap.Error(err))
		}
		return ordered.New[V]()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ordered.New[V]()
	}
	doc := ordered.New[V]()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("cache document corrupt; starting empty",
			zap.String("document", name), zap.Error(err))
		return ordered.New[V]()
	}
	s.logger.Debug("cache document loaded",
		zap.String("document", name), zap.Int("entries", doc.Len()))
	return doc
}

// Save serializes doc and overwrites the named document in full.
func Save[V any](ctx context.Context, s *Store, doc *ordered.Map[V], name string) error {
	if doc == nil {
		doc = ordered.New[V]()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if _, err := s.blobs.PutObject(ctx, name, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
