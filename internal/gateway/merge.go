package gateway

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/samuflix/backend/internal/models"
)

// MergeVideos merges the sequences left to right keyed by id, keeping the last
// occurrence of each key at the position of its first, then orders the result
// newest first. Ties keep input order. Videos without an id get a synthesized one.
func MergeVideos(seqs ...[]models.Video) []models.Video {
	merged := mergeLast(seqs, func(v *models.Video) string {
		if v.ID == "" {
			v.ID = syntheticKey(v.PublishedAt)
		}
		return v.ID
	})
	slices.SortStableFunc(merged, func(a, b models.Video) int {
		return cmp.Compare(b.PublishedAt, a.PublishedAt)
	})
	return merged
}

// MergeFavorites merges favorites keyed by videoId (or id) with the same rules as MergeVideos.
func MergeFavorites(seqs ...[]models.Favorite) []models.Favorite {
	merged := mergeLast(seqs, func(f *models.Favorite) string {
		switch {
		case f.VideoID != "":
			return f.VideoID
		case f.ID != "":
			return f.ID
		default:
			return syntheticKey(f.PublishedAt)
		}
	})
	slices.SortStableFunc(merged, func(a, b models.Favorite) int {
		return cmp.Compare(b.PublishedAt, a.PublishedAt)
	})
	return merged
}

// OrderMessages returns a copy of messages sorted oldest first. Backend lists
// arrive newest first; equal timestamps keep input order.
func OrderMessages(messages []models.Message) []models.Message {
	ordered := make([]models.Message, len(messages))
	copy(ordered, messages)
	slices.SortStableFunc(ordered, func(a, b models.Message) int {
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	})
	return ordered
}

func mergeLast[T any](seqs [][]T, key func(*T) string) []T {
	index := make(map[string]int)
	merged := []T{}
	for _, seq := range seqs {
		for _, item := range seq {
			k := key(&item)
			if pos, ok := index[k]; ok {
				merged[pos] = item
				continue
			}
			index[k] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged
}

func syntheticKey(publishedAt int64) string {
	return fmt.Sprintf("remote-%d-%s", publishedAt, uuid.NewString()[:8])
}
