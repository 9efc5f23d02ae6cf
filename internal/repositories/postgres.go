package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samuflix/backend/internal/db"
	"github.com/samuflix/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Save inserts a video. Saving an existing id updates its title and asset
// URLs; published_at is kept from the first write.
func (r *PostgresVideoRepository) Save(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, media_url, thumb_url, published_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE
        SET title = EXCLUDED.title,
            media_url = EXCLUDED.media_url,
            thumb_url = EXCLUDED.thumb_url
    `, video.ID, video.Title, video.MediaURL, video.ThumbURL, video.PublishedAt)
	if err != nil {
		return writeError("insert video", err)
	}

	return nil
}

// List returns every video, newest first.
func (r *PostgresVideoRepository) List(ctx context.Context) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, title, media_url, thumb_url, published_at
        FROM videos
        ORDER BY published_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.Title, &video.MediaURL, &video.ThumbURL, &video.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// PostgresFavoriteRepository provides PostgreSQL-backed persistence for favorites.
type PostgresFavoriteRepository struct {
	pool db.Pool
}

// NewPostgresFavoriteRepository constructs a favorite repository backed by PostgreSQL.
func NewPostgresFavoriteRepository(pool db.Pool) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{pool: pool}
}

// Save records a favorite. A repeated (user, video) pair refreshes the copied
// video fields instead of adding a second row.
func (r *PostgresFavoriteRepository) Save(ctx context.Context, favorite models.Favorite) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	id := favorite.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO favorites (id, user_id, video_id, title, thumb_url, media_url, published_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id, video_id) DO UPDATE
        SET title = EXCLUDED.title,
            thumb_url = EXCLUDED.thumb_url,
            media_url = EXCLUDED.media_url,
            published_at = EXCLUDED.published_at
    `, id, favorite.UserID, favorite.VideoID, favorite.Title, favorite.ThumbURL, favorite.MediaURL, favorite.PublishedAt)
	if err != nil {
		return writeError("insert favorite", err)
	}

	return nil
}

// ListForUser returns the user's favorites, newest video first.
func (r *PostgresFavoriteRepository) ListForUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, video_id, title, thumb_url, media_url, published_at
        FROM favorites
        WHERE user_id = $1
        ORDER BY published_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.VideoID, &f.Title, &f.ThumbURL, &f.MediaURL, &f.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}

// Delete removes every favorite matching the pair and reports how many rows
// went away. Deleting a missing pair is not an error.
func (r *PostgresFavoriteRepository) Delete(ctx context.Context, userID, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM favorites
        WHERE user_id = $1 AND video_id = $2
    `, userID, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete favorites: %w", err)
	}

	return tag.RowsAffected(), nil
}

// PostgresMessageRepository provides PostgreSQL-backed persistence for chat messages.
type PostgresMessageRepository struct {
	pool db.Pool
}

// NewPostgresMessageRepository constructs a message repository backed by PostgreSQL.
func NewPostgresMessageRepository(pool db.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

// Create appends a message.
func (r *PostgresMessageRepository) Create(ctx context.Context, message models.Message) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO messages (id, user_id, body, created_at)
        VALUES ($1, $2, $3, $4)
    `, uuid.NewString(), message.UserID, message.Text, message.CreatedAt)
	if err != nil {
		return writeError("insert message", err)
	}

	return nil
}

// ListForUser returns the user's messages, newest first.
func (r *PostgresMessageRepository) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id, body, created_at
        FROM messages
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ FavoriteRepository = (*PostgresFavoriteRepository)(nil)
var _ MessageRepository = (*PostgresMessageRepository)(nil)
