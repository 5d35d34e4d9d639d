package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davinci-studio/studio-backend/internal/gallery/domain"
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/lib/pq"
)

// Schema creates the tables used by PostgresStore
const Schema = `
CREATE TABLE IF NOT EXISTS generated_images (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	url          TEXT NOT NULL,
	prompt       TEXT NOT NULL,
	aspect_ratio TEXT NOT NULL,
	model        TEXT NOT NULL,
	style        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS generated_images_session_idx ON generated_images (session_id, created_at DESC);
CREATE TABLE IF NOT EXISTS image_bookmarks (
	session_id TEXT NOT NULL,
	image_id   TEXT NOT NULL REFERENCES generated_images (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, image_id)
);
`

// PostgresStore provides persistence for session images in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates missing tables
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveImage inserts a record
func (r *PostgresStore) SaveImage(ctx context.Context, rec gendomain.GeneratedImageRecord) error {
	const q = `
INSERT INTO generated_images (id, session_id, url, prompt, aspect_ratio, model, style, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.URL, rec.Prompt, string(rec.AspectRatio), rec.Model, rec.Style, rec.Timestamp)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrImageExists
		}
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// LoadImages returns the session's images newest first
func (r *PostgresStore) LoadImages(ctx context.Context, sessionID string) ([]gendomain.GeneratedImageRecord, error) {
	const q = `
SELECT id, session_id, url, prompt, aspect_ratio, model, style, created_at
FROM generated_images
WHERE session_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	out := make([]gendomain.GeneratedImageRecord, 0, 16)
	for rows.Next() {
		var rec gendomain.GeneratedImageRecord
		var ratio string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.URL, &rec.Prompt, &ratio, &rec.Model, &rec.Style, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.AspectRatio = gendomain.AspectRatio(ratio)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteImage removes an image; its bookmark goes with it via ON DELETE CASCADE
func (r *PostgresStore) DeleteImage(ctx context.Context, sessionID, imageID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM generated_images WHERE id = $1 AND session_id = $2;`, imageID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

// SetBookmark inserts or removes a bookmark row
func (r *PostgresStore) SetBookmark(ctx context.Context, sessionID, imageID string, bookmarked bool) error {
	var err error
	if bookmarked {
		_, err = r.db.ExecContext(ctx, `
INSERT INTO image_bookmarks (session_id, image_id)
VALUES ($1, $2)
ON CONFLICT (session_id, image_id) DO NOTHING;
`, sessionID, imageID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM image_bookmarks WHERE session_id = $1 AND image_id = $2;`, sessionID, imageID)
	}
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrImageNotFound
		}
		return fmt.Errorf("failed to set bookmark: %w", err)
	}
	return nil
}

// LoadBookmarks returns the bookmarked image IDs of a session
func (r *PostgresStore) LoadBookmarks(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT image_id FROM image_bookmarks WHERE session_id = $1 ORDER BY created_at DESC;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
