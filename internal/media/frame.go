package media

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/samuflix/backend/internal/logging"
)

// Thumbnail bounds and timing.
const (
	DefaultMaxWidth   = 640
	DefaultMaxHeight  = 360
	DefaultSeekOffset = 100 * time.Millisecond
	DefaultTimeout    = 5 * time.Second
)

// FrameExtractor derives a single PNG still from a video source.
type FrameExtractor struct {
	NewPlayer  func() Player
	Timeout    time.Duration
	MaxWidth   int
	MaxHeight  int
	SeekOffset time.Duration
}

// NewFrameExtractor constructs an extractor that opens a fresh player per call.
func NewFrameExtractor(newPlayer func() Player, timeout time.Duration) *FrameExtractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FrameExtractor{
		NewPlayer:  newPlayer,
		Timeout:    timeout,
		MaxWidth:   DefaultMaxWidth,
		MaxHeight:  DefaultMaxHeight,
		SeekOffset: DefaultSeekOffset,
	}
}

// Extract returns PNG bytes for one frame of src and true, or nil and false
// when no frame could be produced. It never returns an error: decode, draw and
// source failures as well as the watchdog all resolve to the empty result.
func (e *FrameExtractor) Extract(ctx context.Context, src Source) ([]byte, bool) {
	ctx, span := logging.StartSpan(ctx, "media.extract_frame")
	defer span.End()
	logger := logging.FromContext(ctx).With("source", src.String())

	if e == nil || e.NewPlayer == nil {
		logger.Warn("frame extractor not configured")
		return nil, false
	}

	location, release, err := src.stage()
	if err != nil {
		logger.Warn("frame source unavailable", "error", err)
		return nil, false
	}
	defer release()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	watchdog := time.NewTimer(timeout)
	defer watchdog.Stop()

	player := e.NewPlayer()
	defer func() { _ = player.Close() }()

	events, err := player.Open(ctx, location)
	if err != nil {
		logger.Warn("open video source", "error", err)
		return nil, false
	}

	seekAttempted := false
	for {
		select {
		case <-watchdog.C:
			logger.Warn("frame extraction timed out", "timeout", timeout)
			return nil, false
		case <-ctx.Done():
			logger.Warn("frame extraction cancelled", "error", ctx.Err())
			return nil, false
		case ev, ok := <-events:
			if !ok {
				logger.Warn("video source closed before a frame was captured")
				return nil, false
			}
			switch ev {
			case EventError:
				logger.Warn("video source failed to decode")
				return nil, false
			case EventMetadataLoaded, EventDataLoaded, EventCanPlay:
				if !seekAttempted {
					seekAttempted = true
					err := player.Seek(e.seekOffset())
					if err == nil {
						continue
					}
					logger.Debug("seek failed, capturing current frame", "error", err)
				}
			case EventSeeked:
			default:
				continue
			}

			if !player.Ready() {
				continue
			}
			data, err := e.capture(player)
			if err != nil {
				logger.Warn("capture frame", "event", ev.String(), "error", err)
				return nil, false
			}
			return data, true
		}
	}
}

func (e *FrameExtractor) seekOffset() time.Duration {
	if e.SeekOffset <= 0 {
		return DefaultSeekOffset
	}
	return e.SeekOffset
}

func (e *FrameExtractor) capture(player Player) ([]byte, error) {
	frame, err := player.Frame()
	if err != nil {
		return nil, err
	}

	maxW, maxH := e.MaxWidth, e.MaxHeight
	if maxW <= 0 || maxH <= 0 {
		maxW, maxH = DefaultMaxWidth, DefaultMaxHeight
	}
	width, height := player.Dimensions()
	width, height = FitWithin(width, height, maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitWithin returns the surface size for a width×height frame: unknown
// dimensions fall back to the bounds, and oversized frames are scaled down
// uniformly by min(maxW/width, maxH/height).
func FitWithin(width, height, maxW, maxH int) (int, int) {
	if width <= 0 {
		width = maxW
	}
	if height <= 0 {
		height = maxH
	}
	if width <= maxW && height <= maxH {
		return width, height
	}

	ratio := math.Min(float64(maxW)/float64(width), float64(maxH)/float64(height))
	w := int(float64(width) * ratio)
	h := int(float64(height) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
