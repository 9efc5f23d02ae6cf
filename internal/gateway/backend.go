package gateway

import (
	"context"

	"github.com/samuflix/backend/internal/models"
)

// Backend is a remote store for videos, favorites and messages.
type Backend interface {
	Name() string
	SaveVideo(ctx context.Context, video models.Video) error
	ListVideos(ctx context.Context) ([]models.Video, error)
	SaveFavorite(ctx context.Context, favorite models.Favorite) error
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
	// DeleteFavorites removes every favorite matching the pair, not just one.
	DeleteFavorites(ctx context.Context, userID, videoID string) error
	SaveMessage(ctx context.Context, message models.Message) error
	ListMessages(ctx context.Context, userID string) ([]models.Message, error)
}

// LocalStore keeps on-device copies used when no remote answers.
type LocalStore interface {
	Videos(ctx context.Context) ([]models.Video, error)
	SetVideos(ctx context.Context, videos []models.Video) error
	FavoriteIDs(ctx context.Context) ([]string, error)
	SetFavoriteIDs(ctx context.Context, ids []string) error
	FavoriteItems(ctx context.Context) (map[string]models.Video, error)
	SetFavoriteItems(ctx context.Context, items map[string]models.Video) error
	Messages(ctx context.Context) ([]models.Message, error)
	SetMessages(ctx context.Context, messages []models.Message) error
}

// IdentityProvider returns the device identity used as userId.
type IdentityProvider interface {
	ID(ctx context.Context) (string, error)
}
