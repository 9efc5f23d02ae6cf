package videos

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/media"
	"github.com/samuflix/backend/internal/models"
)

// DefaultRepairConcurrency bounds concurrent thumbnail repairs per load.
const DefaultRepairConcurrency = 4

// Gallery lists videos and backfills thumbnails for records saved without one.
type Gallery struct {
	store    VideoStore
	uploader Uploader
	thumbs   Thumbnailer
	resolve  func(string) string
	cache    *repairCache

	Concurrency int
}

// NewGallery constructs a Gallery. resolve turns a stored media URL into one a
// player can open; nil leaves URLs unchanged.
func NewGallery(store VideoStore, uploader Uploader, thumbs Thumbnailer, resolve func(string) string, cacheTTL time.Duration) *Gallery {
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	return &Gallery{
		store:       store,
		uploader:    uploader,
		thumbs:      thumbs,
		resolve:     resolve,
		cache:       newRepairCache(cacheTTL),
		Concurrency: DefaultRepairConcurrency,
	}
}

// Load returns the normalized video list. Records with media but no thumbnail
// get a frame extracted from their media; on success the thumbnail is uploaded
// and the record is written back once with only thumbUrl changed.
func (g *Gallery) Load(ctx context.Context) ([]models.Video, gateway.Tier) {
	ctx, span := logging.StartSpan(ctx, "videos.gallery_load")
	defer span.End()

	videos, tier := g.store.Videos(ctx)
	out := slices.Clone(videos)

	limit := g.Concurrency
	if limit <= 0 {
		limit = DefaultRepairConcurrency
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, video := range out {
		if video.ThumbURL != "" || strings.TrimSpace(video.MediaURL) == "" {
			continue
		}
		group.Go(func() error {
			if thumbURL, ok := g.repair(groupCtx, video); ok {
				out[i].ThumbURL = thumbURL
			}
			return nil
		})
	}
	_ = group.Wait()

	return out, tier
}

func (g *Gallery) repair(ctx context.Context, video models.Video) (string, bool) {
	logger := logging.FromContext(ctx).With("videoId", video.ID, "mediaUrl", video.MediaURL)

	if thumbURL, ok := g.cache.lookup(video.MediaURL); ok {
		if thumbURL == "" {
			return "", false
		}
		g.writeBack(ctx, video, thumbURL)
		return thumbURL, true
	}

	png, ok := g.thumbs.Extract(ctx, media.URLSource(g.resolve(video.MediaURL)))
	if !ok {
		g.cache.store(video.MediaURL, "")
		logger.Debug("no frame extracted for thumbnail repair")
		return "", false
	}

	name := video.ID
	if name == "" {
		name = strconv.FormatInt(video.PublishedAt, 10)
	}
	upload, err := g.uploader.UploadThumb(ctx, name, png)
	if err != nil {
		logger.Warn("couldn't save thumbnail", "error", err)
		return "", false
	}
	g.cache.store(video.MediaURL, upload.URL)

	g.writeBack(ctx, video, upload.URL)
	return upload.URL, true
}

// writeBack persists video with only its thumbUrl changed.
func (g *Gallery) writeBack(ctx context.Context, video models.Video, thumbURL string) {
	updated := video
	updated.ThumbURL = thumbURL
	if _, err := g.store.SaveVideo(ctx, updated); err != nil {
		logging.FromContext(ctx).Warn("couldn't save repaired thumbnail", "videoId", video.ID, "error", err)
	}
}
