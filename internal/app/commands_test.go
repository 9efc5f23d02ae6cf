package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samuflix/backend/internal/config"
	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/media"
	"github.com/samuflix/backend/internal/models"
	"github.com/samuflix/backend/internal/videos"
)

func offlineClient(t *testing.T) *client {
	t.Helper()
	cfg := config.Config{
		LogLevel: "error",
		Capture:  config.CaptureConfig{ThumbnailTimeout: 100 * time.Millisecond},
		Client: config.ClientConfig{
			LocalStorePath: filepath.Join(t.TempDir(), "preferences.db"),
			RequestTimeout: time.Second,
			MessageRefresh: 10 * time.Millisecond,
		},
	}
	c, err := openClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	c.stdin = nil
	return c
}

func TestSendAndListMessagesOffline(t *testing.T) {
	c := offlineClient(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := c.execute(ctx, "send", []string{"hello", "there"}, &out); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "hello there") || !strings.Contains(out.String(), "kept on this device only") {
		t.Fatalf("unexpected send output %q", out.String())
	}

	out.Reset()
	if err := c.execute(ctx, "messages", nil, &out); err != nil {
		t.Fatalf("messages: %v", err)
	}
	if !strings.Contains(out.String(), "hello there") {
		t.Fatalf("expected local history got %q", out.String())
	}

	if err := c.execute(ctx, "send", []string{"  "}, &out); err == nil {
		t.Fatal("expected error for blank message")
	}
}

func TestMessagesFollowStopsOnCancel(t *testing.T) {
	c := offlineClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := c.execute(ctx, "messages", []string{"-follow"}, &out); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected follow error: %v", err)
	}
}

func TestFavoriteToggleOffline(t *testing.T) {
	c := offlineClient(t)
	ctx := context.Background()

	video := models.Video{ID: "v1", Title: "Sunset", MediaURL: "/uploads/videos/v1.webm", ThumbURL: "/uploads/thumb/v1.png", PublishedAt: 1000}
	if err := c.local.SetVideos(ctx, []models.Video{video}); err != nil {
		t.Fatalf("seed local videos: %v", err)
	}

	var out bytes.Buffer
	if err := c.execute(ctx, "favorite", []string{"v1"}, &out); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if !strings.Contains(out.String(), "Sunset added to favorites") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := c.execute(ctx, "favorites", nil, &out); err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if !strings.Contains(out.String(), "Sunset") || !strings.Contains(out.String(), "1 favorites from local") {
		t.Fatalf("unexpected favorites output %q", out.String())
	}

	out.Reset()
	if err := c.execute(ctx, "gallery", nil, &out); err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if !strings.Contains(out.String(), "v1") || !strings.Contains(out.String(), "*") {
		t.Fatalf("expected favorited video in gallery got %q", out.String())
	}

	out.Reset()
	if err := c.execute(ctx, "favorite", []string{"v1"}, &out); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	if !strings.Contains(out.String(), "removed from favorites") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := c.execute(ctx, "favorite", []string{"missing"}, &out); err == nil {
		t.Fatal("expected error for unknown video")
	}
}

func TestUnfavoriteOffline(t *testing.T) {
	c := offlineClient(t)
	ctx := context.Background()

	video := models.Video{ID: "v1", Title: "Sunset", PublishedAt: 1000}
	if err := c.local.SetVideos(ctx, []models.Video{video}); err != nil {
		t.Fatalf("seed local videos: %v", err)
	}
	var out bytes.Buffer
	if err := c.execute(ctx, "favorite", []string{"v1"}, &out); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	out.Reset()
	if err := c.execute(ctx, "unfavorite", []string{"v1"}, &out); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	if !strings.Contains(out.String(), "v1 removed from favorites") || !strings.Contains(out.String(), "kept on this device only") {
		t.Fatalf("unexpected unfavorite output %q", out.String())
	}

	ids, err := c.local.FavoriteIDs(ctx)
	if err != nil {
		t.Fatalf("read favorite ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no favorites left got %v", ids)
	}

	if err := c.execute(ctx, "unfavorite", nil, &out); err == nil {
		t.Fatal("expected error without a video id")
	}
}

func TestMessagesFollowSendsTypedLines(t *testing.T) {
	c := offlineClient(t)
	c.stdin = strings.NewReader("typed while following\n\n")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := c.execute(ctx, "messages", []string{"-follow"}, &out); err != nil {
		t.Fatalf("messages -follow: %v", err)
	}
	if !strings.Contains(out.String(), "typed while following") || !strings.Contains(out.String(), "kept on this device only") {
		t.Fatalf("unexpected follow output %q", out.String())
	}

	local, err := c.local.Messages(context.Background())
	if err != nil {
		t.Fatalf("read local messages: %v", err)
	}
	if len(local) != 1 || local[0].Text != "typed while following" {
		t.Fatalf("expected typed line kept locally got %+v", local)
	}
}

func TestChatPrinterReprintsReplacedHistory(t *testing.T) {
	var out bytes.Buffer
	printer := &chatPrinter{out: &out}
	a := models.Message{UserID: "u", Text: "first", CreatedAt: 1}
	b := models.Message{UserID: "u", Text: "second", CreatedAt: 2}
	c := models.Message{UserID: "u", Text: "third", CreatedAt: 3}
	d := models.Message{UserID: "u", Text: "fourth", CreatedAt: 4}

	printer.show([]models.Message{a, b})
	out.Reset()

	printer.show([]models.Message{c, d})
	got := out.String()
	if !strings.Contains(got, "chat history changed") || !strings.Contains(got, "third") || !strings.Contains(got, "fourth") {
		t.Fatalf("expected same-length replacement to be printed got %q", got)
	}

	out.Reset()
	printer.show([]models.Message{c, d, a})
	got = out.String()
	if strings.Contains(got, "history changed") || strings.Contains(got, "third") || !strings.Contains(got, "first") {
		t.Fatalf("expected only the new tail got %q", got)
	}
}

func TestUnhealthyPrimarySkippedForCommand(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.Config{
		LogLevel: "error",
		Client: config.ClientConfig{
			APIURL:         server.URL,
			LocalStorePath: filepath.Join(t.TempDir(), "preferences.db"),
			RequestTimeout: time.Second,
		},
	}
	c, err := openClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open client: %v", err)
	}
	defer c.Close(context.Background())

	var out bytes.Buffer
	if err := c.execute(context.Background(), "send", []string{"hi"}, &out); err != nil {
		t.Fatalf("send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "GET /health" {
		t.Fatalf("expected only the health probe to reach the primary got %v", paths)
	}
}

type stubCapturer struct{}

func (stubCapturer) Start(context.Context) (media.Capture, error) {
	capture := &stubCapture{chunks: make(chan []byte, 1)}
	capture.chunks <- []byte("webm-bytes")
	return capture, nil
}

type stubCapture struct {
	chunks chan []byte
	once   sync.Once
}

func (s *stubCapture) Chunks() <-chan []byte { return s.chunks }

func (s *stubCapture) Stop(context.Context) error {
	s.once.Do(func() { close(s.chunks) })
	return nil
}

type stubThumbnailer struct{}

func (stubThumbnailer) Extract(context.Context, media.Source) ([]byte, bool) {
	return []byte("png"), true
}

func TestRecordKeepsVideoLocallyWhenOffline(t *testing.T) {
	c := offlineClient(t)
	c.newSession = func() *media.Session { return media.NewSession(stubCapturer{}, nil, nil) }
	c.publisher = videos.NewPublisher(c.rest, stubThumbnailer{}, c.gateway)
	ctx := context.Background()

	var out bytes.Buffer
	err := c.execute(ctx, "record", []string{"-duration", "10ms", "-title", "Quick clip"}, &out)

	var exhausted *gateway.ExhaustedError
	if !errors.As(err, &exhausted) || !exhausted.KeptLocally {
		t.Fatalf("expected locally kept exhausted error got %v", err)
	}
	if !strings.Contains(out.String(), "Quick clip") || !strings.Contains(out.String(), "saved to: local") {
		t.Fatalf("unexpected record output %q", out.String())
	}

	local, err := c.local.Videos(ctx)
	if err != nil {
		t.Fatalf("read local videos: %v", err)
	}
	if len(local) != 1 || local[0].Title != "Quick clip" {
		t.Fatalf("expected recording kept locally got %+v", local)
	}
}

func TestRecordRequiresTitle(t *testing.T) {
	c := offlineClient(t)
	var out bytes.Buffer
	if err := c.execute(context.Background(), "record", []string{"-duration", "1s"}, &out); err == nil {
		t.Fatal("expected error without title")
	}
}
