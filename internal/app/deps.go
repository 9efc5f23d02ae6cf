package app

import (
	"context"
	"strings"
	"time"

	"github.com/samuflix/backend/internal/config"
	"github.com/samuflix/backend/internal/db"
	"github.com/samuflix/backend/internal/handlers"
	"github.com/samuflix/backend/internal/middleware"
	"github.com/samuflix/backend/internal/repositories"
	"github.com/samuflix/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	deps := handlers.Dependencies{
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Favorites:      repositories.NewPostgresFavoriteRepository(pool),
		Messages:       repositories.NewPostgresMessageRepository(pool),
		UploadLimiter:  middleware.NewKeyedLimiter(cfg.UploadRate, cfg.UploadBurst, 10*time.Minute),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
		deps.Uploads = s3Store
		return deps, nil
	}

	deps.Uploads = storage.NewLocalStorage(cfg.UploadDir)
	deps.UploadDir = cfg.UploadDir
	return deps, nil
}
