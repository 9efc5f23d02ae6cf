package repositories

import (
	"context"
	"errors"

	"github.com/samuflix/backend/internal/models"
)

var (
	// ErrNotFound reports a write that references a missing video.
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a write that duplicates an existing record.
	ErrConflict = errors.New("record conflict")
)

// VideoRepository exposes data access for video records.
type VideoRepository interface {
	Save(ctx context.Context, video models.Video) error
	List(ctx context.Context) ([]models.Video, error)
}

// FavoriteRepository exposes data access for per-device favorites.
type FavoriteRepository interface {
	Save(ctx context.Context, favorite models.Favorite) error
	ListForUser(ctx context.Context, userID string) ([]models.Favorite, error)
	Delete(ctx context.Context, userID, videoID string) (int64, error)
}

// MessageRepository exposes data access for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, message models.Message) error
	ListForUser(ctx context.Context, userID string) ([]models.Message, error)
}
