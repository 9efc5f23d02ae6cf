package docstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/samuflix/backend/internal/config"
	"github.com/samuflix/backend/internal/gateway"
	"github.com/samuflix/backend/internal/models"
)

// Collection names.
const (
	VideosCollection    = "videos"
	FavoritesCollection = "favorites"
	MessagesCollection  = "messages"
)

// Store writes records straight to a MongoDB database. A Store opened without
// a URI is valid; every call on it fails with gateway.ErrNotConfigured.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the document store described by cfg.
func Open(ctx context.Context, cfg config.DocStoreConfig) (*Store, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return &Store{}, nil
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "samuflix"
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Name identifies the backend in logs.
func (s *Store) Name() string { return "docstore" }

// Configured reports whether the store has a connection.
func (s *Store) Configured() bool {
	return s != nil && s.db != nil
}

// Close disconnects from the document store.
func (s *Store) Close(ctx context.Context) error {
	if !s.Configured() {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("docstore %s: %w", name, gateway.ErrNotConfigured)
	}
	return s.db.Collection(name), nil
}

// SaveVideo implements gateway.Backend. Videos with an id replace the stored
// document with that id, so a thumbnail repair updates the record in place.
func (s *Store) SaveVideo(ctx context.Context, video models.Video) error {
	coll, err := s.collection(VideosCollection)
	if err != nil {
		return err
	}
	if video.ID == "" {
		if _, err := coll.InsertOne(ctx, video); err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
		return nil
	}
	if _, err := coll.ReplaceOne(ctx, videoFilter(video.ID), video, upsert()); err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}
	return nil
}

// ListVideos implements gateway.Backend.
func (s *Store) ListVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := s.find(ctx, VideosCollection, bson.D{}, "publishedAt", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// SaveFavorite implements gateway.Backend.
func (s *Store) SaveFavorite(ctx context.Context, favorite models.Favorite) error {
	coll, err := s.collection(FavoritesCollection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, favorite); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// ListFavorites implements gateway.Backend.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := s.find(ctx, FavoritesCollection, byUser(userID), "publishedAt", &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// DeleteFavorites implements gateway.Backend with DeleteMany.
func (s *Store) DeleteFavorites(ctx context.Context, userID, videoID string) error {
	coll, err := s.collection(FavoritesCollection)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteMany(ctx, favoriteFilter(userID, videoID)); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	return nil
}

// SaveMessage implements gateway.Backend.
func (s *Store) SaveMessage(ctx context.Context, message models.Message) error {
	coll, err := s.collection(MessagesCollection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages implements gateway.Backend.
func (s *Store) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	var messages []models.Message
	if err := s.find(ctx, MessagesCollection, byUser(userID), "createdAt", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Store) find(ctx context.Context, collection string, filter bson.D, sortField string, out any) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	cursor, err := coll.Find(ctx, filter, newestFirst(sortField))
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func byUser(userID string) bson.D {
	return bson.D{{Key: "userId", Value: userID}}
}

func videoFilter(id string) bson.D {
	return bson.D{{Key: "id", Value: id}}
}

func upsert() *options.ReplaceOptions {
	return options.Replace().SetUpsert(true)
}

func favoriteFilter(userID, videoID string) bson.D {
	return bson.D{{Key: "userId", Value: userID}, {Key: "videoId", Value: videoID}}
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}})
}

var _ gateway.Backend = (*Store)(nil)
