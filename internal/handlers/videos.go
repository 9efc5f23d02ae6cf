package handlers

import (
	"net/http"
	"strings"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// VideoHandler provides endpoints for creating and listing videos.
type VideoHandler struct {
	Videos VideoStore
}

// List handles GET /videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "video storage unavailable")
		return
	}

	videos, err := h.Videos.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos)
}

// Create handles POST /videos.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "video storage unavailable")
		return
	}

	var video models.Video
	if err := decodeJSON(w, r, &video); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video.ID = strings.TrimSpace(video.ID)
	video.Title = strings.TrimSpace(video.Title)
	if video.ID == "" || video.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "id and title are required")
		return
	}

	if err := h.Videos.Save(ctx, video); err != nil {
		logger.Error("save video", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save video")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, successResponse{Success: true})
}
