package gateway

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/models"
)

// Gateway persists records through the primary backend, then the secondary
// backend, then the local store.
type Gateway struct {
	primary   Backend
	secondary Backend
	local     LocalStore
	identity  IdentityProvider
	now       func() time.Time

	// localMu serializes read-modify-write cycles on local snapshots.
	localMu sync.Mutex
}

// New constructs a Gateway. Either backend may be nil, which is treated as not configured.
func New(primary, secondary Backend, local LocalStore, identity IdentityProvider) *Gateway {
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		local:     local,
		identity:  identity,
		now:       time.Now,
	}
}

// remote builds the primary and secondary attempts for op.
func (g *Gateway) remote(op func(ctx context.Context, b Backend) error) []Attempt {
	return []Attempt{
		g.attempt(TierPrimary, g.primary, op),
		g.attempt(TierSecondary, g.secondary, op),
	}
}

func (g *Gateway) attempt(tier Tier, b Backend, op func(ctx context.Context, b Backend) error) Attempt {
	if b == nil {
		return Attempt{Tier: tier, Name: "unset"}
	}
	return Attempt{
		Tier: tier,
		Name: b.Name(),
		Run: func(ctx context.Context) error {
			return op(ctx, b)
		},
	}
}

// SaveVideo writes the video to the first remote that accepts it. When none
// does, the video is kept in the local list and an *ExhaustedError is returned.
func (g *Gateway) SaveVideo(ctx context.Context, video models.Video) (Tier, error) {
	ctx, span := logging.StartSpan(ctx, "gateway.save_video")
	defer span.End()

	if strings.TrimSpace(video.ID) == "" || strings.TrimSpace(video.Title) == "" {
		span.Fail(ErrInvalidVideo)
		return TierNone, ErrInvalidVideo
	}

	res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
		return b.SaveVideo(ctx, video)
	})...)
	if res.OK() {
		return res.Tier, nil
	}

	exhausted := &ExhaustedError{Op: "save video", Outcomes: res.Failures()}
	if err := g.keepVideoLocally(ctx, video); err != nil {
		logging.FromContext(ctx).Error("keep video locally", "videoId", video.ID, "error", err)
	} else {
		exhausted.KeptLocally = true
	}
	span.Fail(exhausted)
	if exhausted.KeptLocally {
		return TierLocal, exhausted
	}
	return TierNone, exhausted
}

func (g *Gateway) keepVideoLocally(ctx context.Context, video models.Video) error {
	if g.local == nil {
		return ErrNotConfigured
	}
	g.localMu.Lock()
	defer g.localMu.Unlock()

	existing, err := g.local.Videos(ctx)
	if err != nil {
		return err
	}
	next := make([]models.Video, 0, len(existing)+1)
	next = append(next, video)
	for _, v := range existing {
		if v.ID != video.ID {
			next = append(next, v)
		}
	}
	return g.local.SetVideos(ctx, next)
}

// Videos returns every known video, newest first. It never fails: when no
// remote answers with records the local list is used, which may be empty.
func (g *Gateway) Videos(ctx context.Context) ([]models.Video, Tier) {
	ctx, span := logging.StartSpan(ctx, "gateway.videos")
	defer span.End()

	var fetched []models.Video
	res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
		videos, err := b.ListVideos(ctx)
		if err != nil {
			return err
		}
		fetched = videos
		return nil
	})...)
	if res.OK() && len(fetched) > 0 {
		return MergeVideos(fetched), res.Tier
	}

	if g.local == nil {
		return []models.Video{}, TierNone
	}
	local, err := g.local.Videos(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("read local videos", "error", err)
		return []models.Video{}, TierNone
	}
	return MergeVideos(local), TierLocal
}

// FavoriteSet returns the ids favorited on this device.
func (g *Gateway) FavoriteSet(ctx context.Context) map[string]bool {
	set := map[string]bool{}
	if g.local == nil {
		return set
	}
	ids, err := g.local.FavoriteIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("read local favorites", "error", err)
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ToggleFavorite flips the favorite state of video and returns the new state.
// The local snapshot is always updated first. A remote failure is returned as
// an *ExhaustedError together with the new state.
func (g *Gateway) ToggleFavorite(ctx context.Context, video models.Video) (bool, error) {
	ctx, span := logging.StartSpan(ctx, "gateway.toggle_favorite")
	defer span.End()

	if strings.TrimSpace(video.ID) == "" {
		span.Fail(ErrInvalidVideo)
		return false, ErrInvalidVideo
	}

	added, err := g.toggleLocalFavorite(ctx, video)
	if err != nil {
		span.Fail(err)
		return false, fmt.Errorf("update local favorites: %w", err)
	}

	userID, err := g.userID(ctx)
	if err != nil {
		span.Fail(err)
		return added, err
	}

	var res Result
	if added {
		favorite := models.FavoriteFromVideo(userID, video)
		res = Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
			return b.SaveFavorite(ctx, favorite)
		})...)
	} else {
		res = Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
			return b.DeleteFavorites(ctx, userID, video.ID)
		})...)
	}
	if !res.OK() {
		exhausted := &ExhaustedError{Op: "sync favorite", Outcomes: res.Failures(), KeptLocally: true}
		span.Fail(exhausted)
		return added, exhausted
	}
	return added, nil
}

func (g *Gateway) toggleLocalFavorite(ctx context.Context, video models.Video) (bool, error) {
	if g.local == nil {
		return false, ErrNotConfigured
	}
	g.localMu.Lock()
	defer g.localMu.Unlock()

	ids, err := g.local.FavoriteIDs(ctx)
	if err != nil {
		return false, err
	}

	added := !slices.Contains(ids, video.ID)
	if added {
		ids = append(ids, video.ID)
	} else {
		ids = slices.DeleteFunc(ids, func(id string) bool { return id == video.ID })
	}
	if err := g.local.SetFavoriteIDs(ctx, ids); err != nil {
		return false, err
	}

	items, err := g.local.FavoriteItems(ctx)
	if err != nil {
		return false, err
	}
	items[video.ID] = video
	if err := g.local.SetFavoriteItems(ctx, items); err != nil {
		return false, err
	}
	return added, nil
}

// RemoveFavorite deletes every remote favorite row for videoID and drops it locally.
func (g *Gateway) RemoveFavorite(ctx context.Context, videoID string) error {
	ctx, span := logging.StartSpan(ctx, "gateway.remove_favorite")
	defer span.End()

	if g.local != nil {
		g.localMu.Lock()
		ids, err := g.local.FavoriteIDs(ctx)
		if err == nil {
			err = g.local.SetFavoriteIDs(ctx, slices.DeleteFunc(ids, func(id string) bool { return id == videoID }))
		}
		g.localMu.Unlock()
		if err != nil {
			span.Fail(err)
			return fmt.Errorf("update local favorites: %w", err)
		}
	}

	userID, err := g.userID(ctx)
	if err != nil {
		span.Fail(err)
		return err
	}

	res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
		return b.DeleteFavorites(ctx, userID, videoID)
	})...)
	if !res.OK() {
		exhausted := &ExhaustedError{Op: "remove favorite", Outcomes: res.Failures(), KeptLocally: g.local != nil}
		span.Fail(exhausted)
		return exhausted
	}
	return nil
}

// Favorites returns this device's favorites. Remote answers are deduplicated
// and ordered newest first; otherwise the local snapshot is returned as stored.
func (g *Gateway) Favorites(ctx context.Context) ([]models.Favorite, Tier) {
	ctx, span := logging.StartSpan(ctx, "gateway.favorites")
	defer span.End()

	userID, err := g.userID(ctx)
	if err == nil {
		var fetched []models.Favorite
		res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
			favorites, err := b.ListFavorites(ctx, userID)
			if err != nil {
				return err
			}
			fetched = favorites
			return nil
		})...)
		if res.OK() && len(fetched) > 0 {
			return MergeFavorites(fetched), res.Tier
		}
	} else {
		logging.FromContext(ctx).Warn("device identity unavailable, using local favorites", "error", err)
	}

	return g.localFavorites(ctx, userID), TierLocal
}

func (g *Gateway) localFavorites(ctx context.Context, userID string) []models.Favorite {
	favorites := []models.Favorite{}
	if g.local == nil {
		return favorites
	}
	ids, err := g.local.FavoriteIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("read local favorites", "error", err)
		return favorites
	}
	items, err := g.local.FavoriteItems(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("read local favorite items", "error", err)
		return favorites
	}
	for _, id := range ids {
		video, ok := items[id]
		if !ok {
			continue
		}
		favorites = append(favorites, models.FavoriteFromVideo(userID, video))
	}
	return favorites
}

// SendMessage appends text to the local history and writes it remotely.
// The returned message is valid even when the remote write fails.
func (g *Gateway) SendMessage(ctx context.Context, text string) (models.Message, error) {
	ctx, span := logging.StartSpan(ctx, "gateway.send_message")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		span.Fail(ErrEmptyMessage)
		return models.Message{}, ErrEmptyMessage
	}

	userID, err := g.userID(ctx)
	if err != nil {
		span.Fail(err)
		return models.Message{}, err
	}

	message := models.Message{UserID: userID, Text: text, CreatedAt: g.now().UnixMilli()}

	keptLocally := false
	if g.local != nil {
		g.localMu.Lock()
		history, err := g.local.Messages(ctx)
		if err == nil {
			err = g.local.SetMessages(ctx, append(history, message))
		}
		g.localMu.Unlock()
		if err != nil {
			logging.FromContext(ctx).Warn("keep message locally", "error", err)
		} else {
			keptLocally = true
		}
	}

	res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
		return b.SaveMessage(ctx, message)
	})...)
	if !res.OK() {
		exhausted := &ExhaustedError{Op: "send message", Outcomes: res.Failures(), KeptLocally: keptLocally}
		span.Fail(exhausted)
		return message, exhausted
	}
	return message, nil
}

// Messages returns the chat history oldest first. It never fails.
func (g *Gateway) Messages(ctx context.Context) ([]models.Message, Tier) {
	ctx, span := logging.StartSpan(ctx, "gateway.messages")
	defer span.End()

	if messages, tier := g.RemoteMessages(ctx); len(messages) > 0 {
		return messages, tier
	}

	if g.local == nil {
		return []models.Message{}, TierNone
	}
	local, err := g.local.Messages(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("read local messages", "error", err)
		return []models.Message{}, TierNone
	}
	return OrderMessages(local), TierLocal
}

// RemoteMessages fetches the chat history from the remote tiers only, oldest
// first. It returns nil and TierNone when no remote answers.
func (g *Gateway) RemoteMessages(ctx context.Context) ([]models.Message, Tier) {
	userID, err := g.userID(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("device identity unavailable", "error", err)
		return nil, TierNone
	}

	var fetched []models.Message
	res := Resolve(ctx, g.remote(func(ctx context.Context, b Backend) error {
		messages, err := b.ListMessages(ctx, userID)
		if err != nil {
			return err
		}
		fetched = messages
		return nil
	})...)
	if !res.OK() {
		return nil, TierNone
	}
	return OrderMessages(fetched), res.Tier
}

func (g *Gateway) userID(ctx context.Context) (string, error) {
	if g.identity == nil {
		return "", fmt.Errorf("device identity: %w", ErrNotConfigured)
	}
	id, err := g.identity.ID(ctx)
	if err != nil {
		return "", fmt.Errorf("device identity: %w", err)
	}
	return id, nil
}
