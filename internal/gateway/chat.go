package gateway

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// ChatView is the live, oldest-first message list shown to the user. Sends
// and periodic refreshes may overlap.
type ChatView struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewChatView seeds the view with initial, reordered oldest first.
func NewChatView(initial []models.Message) *ChatView {
	return &ChatView{messages: OrderMessages(initial)}
}

// Append adds a message optimistically, before its remote write completes.
func (c *ChatView) Append(message models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
}

// Refresh replaces the view with fetched unless that would regress it. The
// current view is kept when both tails match, when fetched is empty, and when
// fetched is a shorter history already contained in the view.
func (c *ChatView) Refresh(fetched []models.Message) bool {
	next := OrderMessages(fetched)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(next) == 0 {
		return false
	}
	if len(c.messages) > 0 && sameMessage(c.messages[len(c.messages)-1], next[len(next)-1]) {
		return false
	}
	if len(next) < len(c.messages) && containsAll(c.messages, next) {
		return false
	}

	c.messages = next
	return true
}

// Snapshot returns a copy of the current view.
func (c *ChatView) Snapshot() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// MessageSource fetches remote chat history, oldest first.
type MessageSource interface {
	RemoteMessages(ctx context.Context) ([]models.Message, Tier)
}

// Follow refreshes view from source every interval until ctx is done, calling
// onChange with a snapshot whenever the view changes.
func Follow(ctx context.Context, source MessageSource, view *ChatView, interval time.Duration, onChange func([]models.Message)) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fetched, tier := source.RemoteMessages(ctx)
			if tier == TierNone {
				logger.Debug("message refresh found no remote")
				continue
			}
			if view.Refresh(fetched) && onChange != nil {
				onChange(view.Snapshot())
			}
		}
	}
}

func sameMessage(a, b models.Message) bool {
	return a.CreatedAt == b.CreatedAt && a.Text == b.Text && a.UserID == b.UserID
}

func containsAll(haystack, needles []models.Message) bool {
	for _, n := range needles {
		if !slices.ContainsFunc(haystack, func(m models.Message) bool { return sameMessage(m, n) }) {
			return false
		}
	}
	return true
}
