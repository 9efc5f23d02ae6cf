package handlers

import (
	"context"
	"io"

	"github.com/samuflix/backend/internal/models"
)

// VideoStore captures persistence for video records.
type VideoStore interface {
	Save(ctx context.Context, video models.Video) error
	List(ctx context.Context) ([]models.Video, error)
}

// FavoriteStore captures persistence for per-device favorites.
type FavoriteStore interface {
	Save(ctx context.Context, favorite models.Favorite) error
	ListForUser(ctx context.Context, userID string) ([]models.Favorite, error)
	Delete(ctx context.Context, userID, videoID string) (int64, error)
}

// MessageStore captures persistence for chat messages.
type MessageStore interface {
	Create(ctx context.Context, message models.Message) error
	ListForUser(ctx context.Context, userID string) ([]models.Message, error)
}

// UploadStore persists uploaded files and returns a retrievable URL.
type UploadStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}
