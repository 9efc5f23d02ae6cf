package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samuflix/backend/internal/models"
)

func newTestGateway(primary, secondary Backend, local *memoryLocal) *Gateway {
	g := New(primary, secondary, local, staticIdentity("device-1"))
	g.now = func() time.Time { return time.UnixMilli(5000) }
	return g
}

func TestSaveVideoPrimaryOnlyWritesOnce(t *testing.T) {
	primary := &fakeBackend{name: "rest"}
	secondary := &fakeBackend{name: "docstore", err: errUnreachable}
	g := newTestGateway(primary, secondary, &memoryLocal{})

	tier, err := g.SaveVideo(context.Background(), models.Video{ID: "1", Title: "clip", PublishedAt: 1})

	require.NoError(t, err)
	require.Equal(t, TierPrimary, tier)
	require.Equal(t, 1, primary.writes)
	require.Equal(t, 0, secondary.writes)
}

func TestSaveVideoSecondaryOnly(t *testing.T) {
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	secondary := &fakeBackend{name: "docstore"}
	local := &memoryLocal{}
	g := newTestGateway(primary, secondary, local)

	tier, err := g.SaveVideo(context.Background(), models.Video{ID: "1", Title: "clip", PublishedAt: 1})

	require.NoError(t, err)
	require.Equal(t, TierSecondary, tier)
	require.Equal(t, 1, primary.writes)
	require.Equal(t, 1, secondary.writes)
	require.Empty(t, local.videos)
}

func TestSaveVideoExhaustedKeepsLocalCopy(t *testing.T) {
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	local := &memoryLocal{videos: []models.Video{{ID: "old", Title: "old", PublishedAt: 1}}}
	g := newTestGateway(primary, nil, local)

	tier, err := g.SaveVideo(context.Background(), models.Video{ID: "new", Title: "new", PublishedAt: 2})

	require.Equal(t, TierLocal, tier)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.True(t, exhausted.KeptLocally)
	require.ErrorIs(t, err, errUnreachable)
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Equal(t, []string{"new", "old"}, []string{local.videos[0].ID, local.videos[1].ID})
}

func TestSaveVideoRejectsInvalid(t *testing.T) {
	primary := &fakeBackend{name: "rest"}
	g := newTestGateway(primary, nil, &memoryLocal{})

	_, err := g.SaveVideo(context.Background(), models.Video{ID: "1"})
	require.ErrorIs(t, err, ErrInvalidVideo)
	require.Zero(t, primary.writes)
}

func TestToggleFavoriteTwiceRestoresMembership(t *testing.T) {
	primary := &fakeBackend{name: "rest"}
	local := &memoryLocal{}
	g := newTestGateway(primary, nil, local)
	video := models.Video{ID: "v1", Title: "clip", MediaURL: "/uploads/videos/a.webm", PublishedAt: 10}

	before := g.FavoriteSet(context.Background())["v1"]

	added, err := g.ToggleFavorite(context.Background(), video)
	require.NoError(t, err)
	require.True(t, added)
	require.True(t, g.FavoriteSet(context.Background())["v1"])
	require.Len(t, primary.favorites, 1)
	require.Equal(t, "device-1", primary.favorites[0].UserID)

	added, err = g.ToggleFavorite(context.Background(), video)
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, before, g.FavoriteSet(context.Background())["v1"])
	require.Empty(t, primary.favorites)
	require.Equal(t, video, local.items["v1"])
}

func TestToggleFavoriteOffDeletesEveryDuplicate(t *testing.T) {
	dup := models.Favorite{UserID: "device-1", VideoID: "v1", Title: "clip"}
	other := models.Favorite{UserID: "device-1", VideoID: "v2", Title: "other"}
	primary := &fakeBackend{name: "rest", favorites: []models.Favorite{dup, other, dup, dup}}
	local := &memoryLocal{ids: []string{"v1"}, items: map[string]models.Video{"v1": {ID: "v1", Title: "clip"}}}
	g := newTestGateway(primary, nil, local)

	added, err := g.ToggleFavorite(context.Background(), models.Video{ID: "v1", Title: "clip"})

	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, 1, primary.deletes)
	require.Equal(t, []models.Favorite{other}, primary.favorites)
}

func TestToggleFavoriteUpdatesLocalWhenRemotesFail(t *testing.T) {
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	secondary := &fakeBackend{name: "docstore", err: errUnreachable}
	local := &memoryLocal{}
	g := newTestGateway(primary, secondary, local)

	added, err := g.ToggleFavorite(context.Background(), models.Video{ID: "v1", Title: "clip"})

	require.True(t, added)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, []string{"v1"}, local.ids)
	require.Equal(t, 1, primary.writes)
	require.Equal(t, 1, secondary.writes)
}

func TestRemoveFavoriteSetDelete(t *testing.T) {
	dup := models.Favorite{UserID: "device-1", VideoID: "v1"}
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	secondary := &fakeBackend{name: "docstore", favorites: []models.Favorite{dup, dup}}
	local := &memoryLocal{ids: []string{"v1", "v2"}}
	g := newTestGateway(primary, secondary, local)

	require.NoError(t, g.RemoveFavorite(context.Background(), "v1"))
	require.Empty(t, secondary.favorites)
	require.Equal(t, []string{"v2"}, local.ids)
}

func TestReadsWithBothRemotesUnreachable(t *testing.T) {
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	secondary := &fakeBackend{name: "docstore", err: errUnreachable}
	local := &memoryLocal{
		ids: []string{"b", "a"},
		items: map[string]models.Video{
			"a": {ID: "a", Title: "A", PublishedAt: 1},
			"b": {ID: "b", Title: "B", PublishedAt: 2},
		},
	}
	g := newTestGateway(primary, secondary, local)

	videos, tier := g.Videos(context.Background())
	require.NotNil(t, videos)
	require.Empty(t, videos)
	require.Equal(t, TierLocal, tier)

	favorites, tier := g.Favorites(context.Background())
	require.Equal(t, TierLocal, tier)
	require.Len(t, favorites, 2)
	require.Equal(t, "b", favorites[0].VideoID)
	require.Equal(t, "a", favorites[1].VideoID)

	messages, _ := g.Messages(context.Background())
	require.NotNil(t, messages)
	require.Empty(t, messages)
}

func TestVideosEmptyPrimaryFallsToLocal(t *testing.T) {
	primary := &fakeBackend{name: "rest"}
	secondary := &fakeBackend{name: "docstore", videos: []models.Video{{ID: "remote"}}}
	local := &memoryLocal{videos: []models.Video{{ID: "x", PublishedAt: 1}, {ID: "y", PublishedAt: 3}}}
	g := newTestGateway(primary, secondary, local)

	videos, tier := g.Videos(context.Background())

	require.Equal(t, TierLocal, tier)
	require.Equal(t, 0, secondary.reads)
	require.Equal(t, "y", videos[0].ID)
	require.Equal(t, "x", videos[1].ID)
}

func TestVideosFromSecondaryAreMerged(t *testing.T) {
	primary := &fakeBackend{name: "rest", err: errUnreachable}
	secondary := &fakeBackend{name: "docstore", videos: []models.Video{
		{ID: "1", Title: "old", PublishedAt: 1},
		{ID: "2", Title: "two", PublishedAt: 2},
		{ID: "1", Title: "new", PublishedAt: 1},
	}}
	g := newTestGateway(primary, secondary, &memoryLocal{})

	videos, tier := g.Videos(context.Background())

	require.Equal(t, TierSecondary, tier)
	require.Len(t, videos, 2)
	require.Equal(t, "2", videos[0].ID)
	require.Equal(t, "new", videos[1].Title)
}

func TestSendMessageKeepsLocalAndWritesRemote(t *testing.T) {
	primary := &fakeBackend{name: "rest"}
	local := &memoryLocal{}
	g := newTestGateway(primary, nil, local)

	msg, err := g.SendMessage(context.Background(), "  hello  ")

	require.NoError(t, err)
	require.Equal(t, models.Message{UserID: "device-1", Text: "hello", CreatedAt: 5000}, msg)
	require.Equal(t, []models.Message{msg}, local.messages)
	require.Equal(t, []models.Message{msg}, primary.messages)

	_, err = g.SendMessage(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestMessagesAscending(t *testing.T) {
	primary := &fakeBackend{name: "rest", messages: []models.Message{
		{UserID: "device-1", Text: "c", CreatedAt: 300},
		{UserID: "device-1", Text: "a", CreatedAt: 100},
		{UserID: "device-1", Text: "b", CreatedAt: 200},
	}}
	g := newTestGateway(primary, nil, &memoryLocal{})

	messages, tier := g.Messages(context.Background())

	require.Equal(t, TierPrimary, tier)
	require.Equal(t, []int64{100, 200, 300}, []int64{messages[0].CreatedAt, messages[1].CreatedAt, messages[2].CreatedAt})
}
