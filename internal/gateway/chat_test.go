package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samuflix/backend/internal/models"
)

func TestChatViewKeepsOptimisticSend(t *testing.T) {
	a := models.Message{Text: "a", CreatedAt: 1}
	b := models.Message{Text: "b", CreatedAt: 2}
	view := NewChatView([]models.Message{b, a})
	require.Equal(t, []models.Message{a, b}, view.Snapshot())

	sent := models.Message{Text: "c", CreatedAt: 3}
	view.Append(sent)

	// Remote has not seen the send yet.
	require.False(t, view.Refresh([]models.Message{b, a}))
	require.Equal(t, []models.Message{a, b, sent}, view.Snapshot())

	// Remote caught up; tails match.
	require.False(t, view.Refresh([]models.Message{sent, b, a}))

	// Empty remote never clears the view.
	require.False(t, view.Refresh(nil))
	require.Len(t, view.Snapshot(), 3)
}

func TestChatViewReplacesOnNewRemoteHistory(t *testing.T) {
	a := models.Message{Text: "a", CreatedAt: 1}
	view := NewChatView([]models.Message{a})

	other := models.Message{Text: "z", CreatedAt: 9}
	require.True(t, view.Refresh([]models.Message{other, a}))
	require.Equal(t, []models.Message{a, other}, view.Snapshot())
}

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]models.Message
}

func (s *scriptedSource) RemoteMessages(context.Context) ([]models.Message, Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil, TierNone
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, TierPrimary
}

func TestFollowPublishesChanges(t *testing.T) {
	source := &scriptedSource{batches: [][]models.Message{
		{{Text: "hello", CreatedAt: 1}},
	}}
	view := NewChatView(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	changes := make(chan []models.Message, 1)
	go func() {
		_ = Follow(ctx, source, view, 10*time.Millisecond, func(m []models.Message) {
			select {
			case changes <- m:
			default:
			}
		})
	}()

	select {
	case got := <-changes:
		require.Equal(t, "hello", got[0].Text)
	case <-ctx.Done():
		t.Fatal("timed out waiting for refresh")
	}
}
