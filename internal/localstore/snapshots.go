package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// Videos returns the locally kept video list, newest first.
func (s *Store) Videos(ctx context.Context) ([]models.Video, error) {
	return readJSON[[]models.Video](ctx, s, KeyVideos)
}

// SetVideos replaces the local video list.
func (s *Store) SetVideos(ctx context.Context, videos []models.Video) error {
	return s.writeJSON(ctx, KeyVideos, videos)
}

// FavoriteIDs returns the ids of locally favorited videos.
func (s *Store) FavoriteIDs(ctx context.Context) ([]string, error) {
	return readJSON[[]string](ctx, s, KeyFavorites)
}

// SetFavoriteIDs replaces the local favorite id list.
func (s *Store) SetFavoriteIDs(ctx context.Context, ids []string) error {
	return s.writeJSON(ctx, KeyFavorites, ids)
}

// FavoriteItems returns the video copies kept for each favorite id.
func (s *Store) FavoriteItems(ctx context.Context) (map[string]models.Video, error) {
	items, err := readJSON[map[string]models.Video](ctx, s, KeyFavoriteItems)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = map[string]models.Video{}
	}
	return items, nil
}

// SetFavoriteItems replaces the favorite video copies.
func (s *Store) SetFavoriteItems(ctx context.Context, items map[string]models.Video) error {
	return s.writeJSON(ctx, KeyFavoriteItems, items)
}

// Messages returns the locally kept chat history.
func (s *Store) Messages(ctx context.Context) ([]models.Message, error) {
	return readJSON[[]models.Message](ctx, s, KeyMessages)
}

// SetMessages replaces the local chat history.
func (s *Store) SetMessages(ctx context.Context, messages []models.Message) error {
	return s.writeJSON(ctx, KeyMessages, messages)
}

// readJSON decodes the snapshot under key. A missing or corrupt snapshot
// yields the zero value and no error.
func readJSON[T any](ctx context.Context, s *Store, key string) (T, error) {
	var value T
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return value, err
	}
	if !ok || raw == "" {
		return value, nil
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logging.FromContext(ctx).Warn("discarding corrupt local snapshot", "key", key, "error", err)
		var zero T
		return zero, nil
	}
	return value, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("local store: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
