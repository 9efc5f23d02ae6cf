package handlers

import (
	"context"
	"io"
	"sync"

	"github.com/samuflix/backend/internal/models"
)

type videoStoreStub struct {
	saved   []models.Video
	list    []models.Video
	saveErr error
	listErr error
}

func (s *videoStoreStub) Save(_ context.Context, video models.Video) error {
	s.saved = append(s.saved, video)
	return s.saveErr
}

func (s *videoStoreStub) List(context.Context) ([]models.Video, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

type favoriteStoreStub struct {
	saved       []models.Favorite
	list        []models.Favorite
	listUser    string
	deleted     [][2]string
	deleteCount int64
	err         error
}

func (s *favoriteStoreStub) Save(_ context.Context, favorite models.Favorite) error {
	s.saved = append(s.saved, favorite)
	return s.err
}

func (s *favoriteStoreStub) ListForUser(_ context.Context, userID string) ([]models.Favorite, error) {
	s.listUser = userID
	return s.list, s.err
}

func (s *favoriteStoreStub) Delete(_ context.Context, userID, videoID string) (int64, error) {
	s.deleted = append(s.deleted, [2]string{userID, videoID})
	return s.deleteCount, s.err
}

type messageStoreStub struct {
	created  []models.Message
	list     []models.Message
	listUser string
	err      error
}

func (s *messageStoreStub) Create(_ context.Context, message models.Message) error {
	s.created = append(s.created, message)
	return s.err
}

func (s *messageStoreStub) ListForUser(_ context.Context, userID string) ([]models.Message, error) {
	s.listUser = userID
	return s.list, s.err
}

type uploadStoreStub struct {
	mu          sync.Mutex
	keys        []string
	contents    []string
	contentType string
	err         error
}

func (s *uploadStoreStub) Save(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	s.contents = append(s.contents, string(data))
	s.contentType = contentType
	return "/uploads/" + key, nil
}

type limiterStub struct {
	allow bool
	keys  []string
}

func (l *limiterStub) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}
