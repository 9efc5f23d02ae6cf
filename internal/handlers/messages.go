package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// MessageHandler provides chat endpoints.
type MessageHandler struct {
	Messages MessageStore
	NowFunc  func() time.Time
}

// List handles GET /messages/{userId}.
func (h MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Messages == nil {
		respondError(ctx, w, http.StatusInternalServerError, "message storage unavailable")
		return
	}

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId is required")
		return
	}

	messages, err := h.Messages.ListForUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list messages", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	respondJSON(ctx, w, http.StatusOK, messages)
}

// Create handles POST /messages. A missing createdAt is stamped with the
// server time.
func (h MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	if h.Messages == nil {
		respondError(ctx, w, http.StatusInternalServerError, "message storage unavailable")
		return
	}

	var message models.Message
	if err := decodeJSON(w, r, &message); err != nil {
		logger.Warn("invalid message payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	message.UserID = strings.TrimSpace(message.UserID)
	if message.UserID == "" || strings.TrimSpace(message.Text) == "" {
		respondError(ctx, w, http.StatusBadRequest, "userId and text are required")
		return
	}
	if message.CreatedAt == 0 {
		message.CreatedAt = h.now().UnixMilli()
	}

	if err := h.Messages.Create(ctx, message); err != nil {
		logger.Error("save message", "userId", message.UserID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save message")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, successResponse{Success: true})
}

func (h MessageHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}
