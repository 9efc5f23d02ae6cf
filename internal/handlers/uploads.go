package handlers

import (
	"errors"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
	"github.com/samuflix/backend/internal/storage"
)

// DefaultMaxUploadBytes caps a single upload.
const DefaultMaxUploadBytes int64 = 500 << 20

// UploadHandler accepts one multipart file per request and stores it under a
// role-specific directory.
type UploadHandler struct {
	Store    UploadStore
	MaxBytes int64
	Limiter  Limiter
	NowFunc  func() time.Time
}

// Video handles POST /videos/upload with the file in field "video".
func (h UploadHandler) Video(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "video", "videos")
}

// Thumb handles POST /videos/upload-thumb with the file in field "thumb".
func (h UploadHandler) Thumb(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "thumb", "thumb")
}

func (h UploadHandler) handle(w http.ResponseWriter, r *http.Request, field, role string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx).With("field", field)

	if h.Limiter != nil && !h.Limiter.Allow("upload:"+uploaderAddr(r)) {
		respondError(ctx, w, http.StatusTooManyRequests, "too many uploads, slow down")
		return
	}
	if h.Store == nil {
		respondError(ctx, w, http.StatusInternalServerError, "upload storage unavailable")
		return
	}

	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if r.ContentLength > maxBytes {
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		logger.Warn("invalid upload form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	name := storage.ObjectName(h.now(), header.Filename)
	url, err := h.Store.Save(ctx, storage.ObjectKey(role, name), header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyUpload) {
			respondError(ctx, w, http.StatusBadRequest, "no file uploaded")
			return
		}
		logger.Error("store upload", "name", name, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	logger.Info("upload stored", "name", name, "size", header.Size)
	respondJSON(ctx, w, http.StatusOK, models.Upload{URL: url, Filename: name})
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

// uploaderAddr names the caller for rate limiting: the first X-Forwarded-For
// hop when a proxy sets one, otherwise the connection's address.
func uploaderAddr(r *http.Request) string {
	if hop, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(hop) != "" {
		return strings.TrimSpace(hop)
	}
	if addr, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return addr.Addr().String()
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
