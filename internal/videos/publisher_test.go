package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/media"
)

func fixedPublisher(uploader Uploader, thumbs Thumbnailer, store VideoStore) *Publisher {
	p := NewPublisher(uploader, thumbs, store)
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func recording() media.Blob {
	return media.Blob{Data: []byte("webm"), ContentType: media.WebMContentType}
}

func TestPublishUploadsAndSaves(t *testing.T) {
	uploader := &uploaderStub{}
	store := &videoStoreStub{}
	p := fixedPublisher(uploader, &thumbnailerStub{}, store)

	pub, err := p.Publish(context.Background(), "  Sunset ", recording())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if pub.Tier != gateway.TierPrimary {
		t.Fatalf("expected primary tier got %s", pub.Tier)
	}
	if pub.MediaErr != nil || pub.ThumbErr != nil {
		t.Fatalf("unexpected partial failure: %+v", pub)
	}

	want := pub.Video
	if want.ID != "1700000000000" || want.PublishedAt != 1700000000000 || want.Title != "Sunset" {
		t.Fatalf("unexpected record: %+v", want)
	}
	if want.MediaURL != "/uploads/videos/video-1700000000000.webm" {
		t.Fatalf("unexpected media url %q", want.MediaURL)
	}
	if want.ThumbURL != "/uploads/thumb/thumb-1700000000000.png" {
		t.Fatalf("unexpected thumb url %q", want.ThumbURL)
	}
	if len(store.saved) != 1 || store.saved[0] != want {
		t.Fatalf("expected one save of %+v got %+v", want, store.saved)
	}
}

func TestPublishSavesWithoutThumbnail(t *testing.T) {
	store := &videoStoreStub{}
	p := fixedPublisher(&uploaderStub{}, &thumbnailerStub{fail: true}, store)

	pub, err := p.Publish(context.Background(), "Clip", recording())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !errors.Is(pub.ThumbErr, ErrNoThumbnail) {
		t.Fatalf("expected ErrNoThumbnail got %v", pub.ThumbErr)
	}
	if len(store.saved) != 1 || store.saved[0].ThumbURL != "" || store.saved[0].MediaURL == "" {
		t.Fatalf("unexpected saved records %+v", store.saved)
	}
}

func TestPublishContinuesAfterUploadFailures(t *testing.T) {
	uploader := &uploaderStub{videoErr: errOffline, thumbErr: errOffline}
	store := &videoStoreStub{}
	p := fixedPublisher(uploader, &thumbnailerStub{}, store)

	pub, err := p.Publish(context.Background(), "Clip", recording())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !errors.Is(pub.MediaErr, errOffline) || !errors.Is(pub.ThumbErr, errOffline) {
		t.Fatalf("expected upload errors recorded got %+v", pub)
	}
	if pub.Video.MediaURL != "" || pub.Video.ThumbURL != "" {
		t.Fatalf("expected empty urls got %+v", pub.Video)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected record saved once got %d", len(store.saved))
	}
}

func TestPublishReportsExhaustedSave(t *testing.T) {
	exhausted := &gateway.ExhaustedError{Op: "save video", KeptLocally: true}
	store := &videoStoreStub{saveErr: exhausted}
	p := fixedPublisher(&uploaderStub{}, &thumbnailerStub{}, store)

	pub, err := p.Publish(context.Background(), "Clip", recording())

	var target *gateway.ExhaustedError
	if !errors.As(err, &target) || !target.KeptLocally {
		t.Fatalf("expected exhausted error got %v", err)
	}
	if pub.Tier != gateway.TierLocal || pub.Video.ID == "" {
		t.Fatalf("expected local publication got %+v", pub)
	}
}

func TestPublishValidatesInput(t *testing.T) {
	p := fixedPublisher(&uploaderStub{}, &thumbnailerStub{}, &videoStoreStub{})

	if _, err := p.Publish(context.Background(), " ", recording()); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired got %v", err)
	}
	if _, err := p.Publish(context.Background(), "Clip", media.Blob{}); !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("expected ErrEmptyRecording got %v", err)
	}
}
