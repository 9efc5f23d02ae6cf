package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/samuflix/backend/internal/models"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type fakeBackend struct {
	name string
	err  error

	mu        sync.Mutex
	videos    []models.Video
	favorites []models.Favorite
	messages  []models.Message
	writes    int
	reads     int
	deletes   int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) SaveVideo(_ context.Context, video models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.videos = append(f.videos, video)
	return nil
}

func (f *fakeBackend) ListVideos(context.Context) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Video(nil), f.videos...), nil
}

func (f *fakeBackend) SaveFavorite(_ context.Context, favorite models.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.favorites = append(f.favorites, favorite)
	return nil
}

func (f *fakeBackend) ListFavorites(_ context.Context, userID string) ([]models.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Favorite
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeBackend) DeleteFavorites(_ context.Context, userID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.err != nil {
		return f.err
	}
	kept := f.favorites[:0]
	for _, fav := range f.favorites {
		if fav.UserID == userID && fav.VideoID == videoID {
			continue
		}
		kept = append(kept, fav)
	}
	f.favorites = kept
	return nil
}

func (f *fakeBackend) SaveMessage(_ context.Context, message models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeBackend) ListMessages(_ context.Context, userID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

type memoryLocal struct {
	videos   []models.Video
	ids      []string
	items    map[string]models.Video
	messages []models.Message
}

func (m *memoryLocal) Videos(context.Context) ([]models.Video, error) {
	return append([]models.Video(nil), m.videos...), nil
}

func (m *memoryLocal) SetVideos(_ context.Context, videos []models.Video) error {
	m.videos = videos
	return nil
}

func (m *memoryLocal) FavoriteIDs(context.Context) ([]string, error) {
	return append([]string(nil), m.ids...), nil
}

func (m *memoryLocal) SetFavoriteIDs(_ context.Context, ids []string) error {
	m.ids = ids
	return nil
}

func (m *memoryLocal) FavoriteItems(context.Context) (map[string]models.Video, error) {
	items := map[string]models.Video{}
	for k, v := range m.items {
		items[k] = v
	}
	return items, nil
}

func (m *memoryLocal) SetFavoriteItems(_ context.Context, items map[string]models.Video) error {
	m.items = items
	return nil
}

func (m *memoryLocal) Messages(context.Context) ([]models.Message, error) {
	return append([]models.Message(nil), m.messages...), nil
}

func (m *memoryLocal) SetMessages(_ context.Context, messages []models.Message) error {
	m.messages = messages
	return nil
}

type staticIdentity string

func (s staticIdentity) ID(context.Context) (string, error) { return string(s), nil }
