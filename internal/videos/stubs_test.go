package videos

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/media"
	"github.com/samuflix/backend/internal/models"
)

type uploaderStub struct {
	mu       sync.Mutex
	videoErr error
	thumbErr error
	videos   []string
	thumbs   []string
}

func (u *uploaderStub) UploadVideo(_ context.Context, id string, _ []byte, _ string) (models.Upload, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.videoErr != nil {
		return models.Upload{}, u.videoErr
	}
	u.videos = append(u.videos, id)
	return models.Upload{URL: fmt.Sprintf("/uploads/videos/video-%s.webm", id)}, nil
}

func (u *uploaderStub) UploadThumb(_ context.Context, id string, _ []byte) (models.Upload, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.thumbErr != nil {
		return models.Upload{}, u.thumbErr
	}
	u.thumbs = append(u.thumbs, id)
	return models.Upload{URL: fmt.Sprintf("/uploads/thumb/thumb-%s.png", id)}, nil
}

type thumbnailerStub struct {
	mu      sync.Mutex
	fail    bool
	sources []string
}

func (t *thumbnailerStub) Extract(_ context.Context, src media.Source) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, src.String())
	if t.fail {
		return nil, false
	}
	return []byte("png"), true
}

func (t *thumbnailerStub) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sources)
}

type videoStoreStub struct {
	mu      sync.Mutex
	listed  []models.Video
	saved   []models.Video
	saveErr error
}

func (s *videoStoreStub) SaveVideo(_ context.Context, video models.Video) (gateway.Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, video)
	if s.saveErr != nil {
		return gateway.TierLocal, s.saveErr
	}
	return gateway.TierPrimary, nil
}

func (s *videoStoreStub) Videos(context.Context) ([]models.Video, gateway.Tier) {
	return s.listed, gateway.TierPrimary
}

var errOffline = errors.New("offline")
