package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"
)

// Event is a readiness transition reported by a Player.
type Event int

const (
	EventMetadataLoaded Event = iota + 1
	EventDataLoaded
	EventCanPlay
	EventSeeked
	EventError
)

func (e Event) String() string {
	switch e {
	case EventMetadataLoaded:
		return "metadata-loaded"
	case EventDataLoaded:
		return "data-loaded"
	case EventCanPlay:
		return "can-play"
	case EventSeeked:
		return "seeked"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Player decodes a video source and reports readiness asynchronously.
// Sources fire readiness events inconsistently, so callers must not rely on
// any particular event arriving.
type Player interface {
	Open(ctx context.Context, location string) (<-chan Event, error)
	// Seek moves to offset. An error means no EventSeeked will follow.
	Seek(offset time.Duration) error
	// Ready reports whether a decoded frame is available.
	Ready() bool
	Dimensions() (width, height int)
	Frame() (image.Image, error)
	Close() error
}

// Source is a playable video: a remote URL or an in-memory blob.
type Source struct {
	url  string
	data []byte
}

// URLSource refers to a remote or on-disk video.
func URLSource(url string) Source {
	return Source{url: url}
}

// BlobSource refers to video bytes held in memory, such as a fresh recording.
func BlobSource(data []byte) Source {
	return Source{data: data}
}

func (s Source) String() string {
	if s.url != "" {
		return s.url
	}
	return fmt.Sprintf("blob(%d bytes)", len(s.data))
}

// stage returns a location a Player can open and a release func that must be
// called once the location is no longer needed.
func (s Source) stage() (string, func(), error) {
	if s.url != "" {
		return s.url, func() {}, nil
	}
	if len(s.data) == 0 {
		return "", nil, fmt.Errorf("empty video source")
	}

	f, err := os.CreateTemp("", "samuflix-source-*.webm")
	if err != nil {
		return "", nil, fmt.Errorf("stage blob: %w", err)
	}
	if _, err := f.Write(s.data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage blob: %w", err)
	}

	name := f.Name()
	return name, func() { _ = os.Remove(name) }, nil
}
