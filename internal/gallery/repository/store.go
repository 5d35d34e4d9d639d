package repository

import (
	"context"

	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
)

// SessionStore persists a session's images and bookmarks
type SessionStore interface {
	SaveImage(ctx context.Context, rec gendomain.GeneratedImageRecord) error
	// LoadImages returns the session's images newest first
	LoadImages(ctx context.Context, sessionID string) ([]gendomain.GeneratedImageRecord, error)
	DeleteImage(ctx context.Context, sessionID, imageID string) error
	// SetBookmark records the bookmark state; it is idempotent
	SetBookmark(ctx context.Context, sessionID, imageID string, bookmarked bool) error
	LoadBookmarks(ctx context.Context, sessionID string) ([]string, error)
}

var (
	_ SessionStore = (*RedisStore)(nil)
	_ SessionStore = (*PostgresStore)(nil)
)
