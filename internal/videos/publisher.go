package videos

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/media"
	"github.com/samuflix/backend/internal/models"
)

// Uploader stores video and thumbnail files and returns their URLs.
type Uploader interface {
	UploadVideo(ctx context.Context, id string, data []byte, contentType string) (models.Upload, error)
	UploadThumb(ctx context.Context, id string, png []byte) (models.Upload, error)
}

// Thumbnailer extracts a PNG still from a video source.
type Thumbnailer interface {
	Extract(ctx context.Context, src media.Source) ([]byte, bool)
}

// VideoStore persists and lists video records.
type VideoStore interface {
	SaveVideo(ctx context.Context, video models.Video) (gateway.Tier, error)
	Videos(ctx context.Context) ([]models.Video, gateway.Tier)
}

// Publication is the outcome of publishing a recording. A publication can be
// partially successful: the record may be saved without a media or thumbnail URL.
type Publication struct {
	Video    models.Video
	Tier     gateway.Tier
	MediaErr error
	ThumbErr error
}

// Publisher turns a finished recording into a saved video record.
type Publisher struct {
	uploader Uploader
	thumbs   Thumbnailer
	store    VideoStore
	now      func() time.Time
}

// NewPublisher constructs a Publisher.
func NewPublisher(uploader Uploader, thumbs Thumbnailer, store VideoStore) *Publisher {
	return &Publisher{uploader: uploader, thumbs: thumbs, store: store, now: time.Now}
}

// Publish uploads the recording, derives and uploads a thumbnail, then saves
// the record. Upload failures are recorded on the Publication and do not stop
// the save. The returned error is non-nil only when the save itself failed;
// the Publication still describes what was kept.
func (p *Publisher) Publish(ctx context.Context, title string, blob media.Blob) (Publication, error) {
	ctx, span := logging.StartSpan(ctx, "videos.publish")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		span.Fail(ErrTitleRequired)
		return Publication{}, ErrTitleRequired
	}
	if len(blob.Data) == 0 {
		span.Fail(ErrEmptyRecording)
		return Publication{}, ErrEmptyRecording
	}

	publishedAt := p.now().UnixMilli()
	id := strconv.FormatInt(publishedAt, 10)
	logger := logging.FromContext(ctx).With("videoId", id)

	pub := Publication{Video: models.Video{ID: id, Title: title, PublishedAt: publishedAt}}

	if upload, err := p.uploader.UploadVideo(ctx, id, blob.Data, blob.ContentType); err != nil {
		pub.MediaErr = fmt.Errorf("upload video: %w", err)
		logger.Warn("video upload failed, saving without media", "error", err)
	} else {
		pub.Video.MediaURL = upload.URL
	}

	if png, ok := p.thumbs.Extract(ctx, media.BlobSource(blob.Data)); !ok {
		pub.ThumbErr = ErrNoThumbnail
		logger.Warn("thumbnail extraction produced nothing")
	} else if upload, err := p.uploader.UploadThumb(ctx, id, png); err != nil {
		pub.ThumbErr = fmt.Errorf("upload thumbnail: %w", err)
		logger.Warn("couldn't save thumbnail", "error", err)
	} else {
		pub.Video.ThumbURL = upload.URL
	}

	tier, err := p.store.SaveVideo(ctx, pub.Video)
	pub.Tier = tier
	if err != nil {
		span.Fail(err)
		return pub, fmt.Errorf("save video: %w", err)
	}

	logger.Info("video published", "tier", tier.String(), "hasMedia", pub.Video.MediaURL != "", "hasThumb", pub.Video.ThumbURL != "")
	return pub, nil
}
