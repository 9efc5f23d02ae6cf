package handlers

import (
	"net/http"
	"strings"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// FavoriteHandler provides per-device favorite endpoints.
type FavoriteHandler struct {
	Favorites FavoriteStore
}

// List handles GET /favorites/{userId}.
func (h FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Favorites == nil {
		respondError(ctx, w, http.StatusInternalServerError, "favorite storage unavailable")
		return
	}

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	favorites, err := h.Favorites.ListForUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list favorites", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	respondJSON(ctx, w, http.StatusOK, favorites)
}

// Create handles POST /favorites.
func (h FavoriteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	if h.Favorites == nil {
		respondError(ctx, w, http.StatusInternalServerError, "favorite storage unavailable")
		return
	}

	var favorite models.Favorite
	if err := decodeJSON(w, r, &favorite); err != nil {
		logger.Warn("invalid favorite payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	favorite.UserID = strings.TrimSpace(favorite.UserID)
	favorite.VideoID = strings.TrimSpace(favorite.VideoID)
	if favorite.UserID == "" || favorite.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId and videoId are required")
		return
	}

	if err := h.Favorites.Save(ctx, favorite); err != nil {
		logger.Error("save favorite", "userId", favorite.UserID, "videoId", favorite.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save favorite")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, successResponse{Success: true})
}

// Delete handles DELETE /favorites/{userId}/{videoId}, removing every
// matching favorite.
func (h FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Favorites == nil {
		respondError(ctx, w, http.StatusInternalServerError, "favorite storage unavailable")
		return
	}

	userID := strings.TrimSpace(r.PathValue("userId"))
	videoID := strings.TrimSpace(r.PathValue("videoId"))
	if userID == "" || videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId and videoId are required")
		return
	}

	removed, err := h.Favorites.Delete(ctx, userID, videoID)
	if err != nil {
		logging.FromContext(ctx).Error("delete favorites", "userId", userID, "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete favorite")
		return
	}

	logging.FromContext(ctx).Debug("favorites deleted", "userId", userID, "videoId", videoID, "removed", removed)
	w.WriteHeader(http.StatusNoContent)
}
