package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"sync"
	"time"
)

// ErrNotSeekable is returned by Seek before metadata has loaded.
var ErrNotSeekable = errors.New("source metadata not loaded")

// FFmpegPlayer decodes single frames with ffprobe and ffmpeg.
type FFmpegPlayer struct {
	FFmpeg  string
	FFprobe string
	Run     CommandRunner

	mu       sync.Mutex
	location string
	width    int
	height   int
	frame    image.Image
	loaded   bool

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFFmpegPlayer constructs a player using the given binaries.
func NewFFmpegPlayer(ffmpeg, ffprobe string) *FFmpegPlayer {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &FFmpegPlayer{FFmpeg: ffmpeg, FFprobe: ffprobe, Run: defaultCommandRunner}
}

// Open starts probing location and decoding its first frame in the background.
func (p *FFmpegPlayer) Open(ctx context.Context, location string) (<-chan Event, error) {
	if location == "" {
		return nil, errors.New("ffmpeg player: empty location")
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events != nil {
		return nil, errors.New("ffmpeg player: already open")
	}

	p.location = location
	p.events = make(chan Event, 8)
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.load()

	return p.events, nil
}

func (p *FFmpegPlayer) load() {
	defer p.wg.Done()

	width, height, err := p.probe(p.ctx)
	if err != nil {
		p.emit(EventError)
		return
	}

	p.mu.Lock()
	p.width, p.height, p.loaded = width, height, true
	p.mu.Unlock()
	p.emit(EventMetadataLoaded)

	frame, err := p.decodeAt(p.ctx, 0)
	if err != nil {
		p.emit(EventError)
		return
	}
	p.setFrame(frame)
	p.emit(EventDataLoaded)
	p.emit(EventCanPlay)
}

// Seek decodes the frame at offset in the background and emits EventSeeked.
// When nothing decodes at offset, as with clips shorter than offset, the
// current frame is kept and EventSeeked is still emitted.
func (p *FFmpegPlayer) Seek(offset time.Duration) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if !loaded {
		return ErrNotSeekable
	}
	if offset < 0 {
		return fmt.Errorf("ffmpeg player: negative seek offset %s", offset)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		frame, err := p.decodeAt(p.ctx, offset)
		if err == nil {
			p.setFrame(frame)
		}
		p.emit(EventSeeked)
	}()
	return nil
}

// Ready reports whether a frame has been decoded.
func (p *FFmpegPlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame != nil
}

// Dimensions returns the natural size reported by ffprobe.
func (p *FFmpegPlayer) Dimensions() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Frame returns the most recently decoded frame.
func (p *FFmpegPlayer) Frame() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame == nil {
		return nil, errors.New("ffmpeg player: no decoded frame")
	}
	return p.frame, nil
}

// Close stops background decoding and closes the event channel.
func (p *FFmpegPlayer) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		cancel, events := p.cancel, p.events
		p.mu.Unlock()
		if cancel == nil {
			return
		}
		cancel()
		p.wg.Wait()
		close(events)
	})
	return nil
}

func (p *FFmpegPlayer) emit(ev Event) {
	select {
	case p.events <- ev:
	case <-p.ctx.Done():
	}
}

func (p *FFmpegPlayer) setFrame(frame image.Image) {
	p.mu.Lock()
	p.frame = frame
	p.mu.Unlock()
}

func (p *FFmpegPlayer) probe(ctx context.Context) (int, int, error) {
	out, err := p.Run(ctx, p.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		p.location,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(payload.Streams) == 0 {
		return 0, 0, errors.New("ffprobe found no video stream")
	}
	return payload.Streams[0].Width, payload.Streams[0].Height, nil
}

func (p *FFmpegPlayer) decodeAt(ctx context.Context, offset time.Duration) (image.Image, error) {
	out, err := p.Run(ctx, p.FFmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", p.location,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"-",
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

var _ Player = (*FFmpegPlayer)(nil)
