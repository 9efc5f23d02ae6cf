package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/models"
)

// StatusError reports a non-2xx answer from the REST backend.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Client talks to the REST backend and its upload relay.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client for baseURL. An empty baseURL yields a client whose
// calls all fail with gateway.ErrNotConfigured.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Name identifies the backend in logs.
func (c *Client) Name() string { return "rest" }

// FullURL resolves a relative location returned by the backend against the base URL.
func (c *Client) FullURL(location string) string {
	if location == "" || c.baseURL == "" {
		return location
	}
	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}
	return c.baseURL + "/" + strings.TrimLeft(location, "/")
}

// Health reports whether the backend answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &payload); err != nil {
		return err
	}
	if !payload.OK {
		return errors.New("rest backend reported unhealthy")
	}
	return nil
}

// SaveVideo implements gateway.Backend.
func (c *Client) SaveVideo(ctx context.Context, video models.Video) error {
	return c.do(ctx, http.MethodPost, "/videos", video, nil)
}

// ListVideos implements gateway.Backend.
func (c *Client) ListVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := c.do(ctx, http.MethodGet, "/videos", nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// SaveFavorite implements gateway.Backend.
func (c *Client) SaveFavorite(ctx context.Context, favorite models.Favorite) error {
	return c.do(ctx, http.MethodPost, "/favorites", favorite, nil)
}

// ListFavorites implements gateway.Backend.
func (c *Client) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := c.do(ctx, http.MethodGet, "/favorites/"+url.PathEscape(userID), nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// DeleteFavorites implements gateway.Backend. The server removes every matching row.
func (c *Client) DeleteFavorites(ctx context.Context, userID, videoID string) error {
	path := "/favorites/" + url.PathEscape(userID) + "/" + url.PathEscape(videoID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SaveMessage implements gateway.Backend.
func (c *Client) SaveMessage(ctx context.Context, message models.Message) error {
	return c.do(ctx, http.MethodPost, "/messages", message, nil)
}

// ListMessages implements gateway.Backend.
func (c *Client) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(userID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// UploadVideo sends a recorded clip to the upload relay as video-<id>.<ext>.
func (c *Client) UploadVideo(ctx context.Context, id string, data []byte, contentType string) (models.Upload, error) {
	name := fmt.Sprintf("video-%s.%s", id, extensionFor(contentType))
	return c.upload(ctx, "/videos/upload", "video", name, contentType, data)
}

// UploadThumb sends a PNG thumbnail to the upload relay as thumb-<id>.png.
func (c *Client) UploadThumb(ctx context.Context, id string, png []byte) (models.Upload, error) {
	return c.upload(ctx, "/videos/upload-thumb", "thumb", fmt.Sprintf("thumb-%s.png", id), "image/png", png)
}

func (c *Client) upload(ctx context.Context, path, field, filename, contentType string, data []byte) (models.Upload, error) {
	if c.baseURL == "" {
		return models.Upload{}, fmt.Errorf("rest upload: %w", gateway.ErrNotConfigured)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreatePart(fileHeader(field, filename, contentType))
	if err != nil {
		return models.Upload{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return models.Upload{}, fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.Upload{}, fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return models.Upload{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var upload models.Upload
	if err := c.send(req, &upload); err != nil {
		return models.Upload{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if upload.URL == "" {
		return models.Upload{}, fmt.Errorf("upload %s: relay returned no url", filename)
	}
	upload.URL = c.FullURL(upload.URL)
	return upload, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("rest %s %s: %w", method, path, gateway.ErrNotConfigured)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

var _ gateway.Backend = (*Client)(nil)
