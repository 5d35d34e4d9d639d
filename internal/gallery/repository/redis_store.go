package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davinci-studio/studio-backend/internal/gallery/domain"
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/redis/go-redis/v9"
)

const (
	imageKeyPrefix   = "studio:image:"   // JSON record: studio:image:{image_id}
	sessionKeyPrefix = "studio:session:" // per-session indexes: studio:session:{session_id}:...
	defaultTTL       = 30 * 24 * time.Hour
)

// RedisStore keeps image records as JSON values, indexed per session by a
// sorted set scored on the record timestamp.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl uses 30 days.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// SaveImage writes the record and indexes it under its session
func (r *RedisStore) SaveImage(ctx context.Context, rec gendomain.GeneratedImageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal image: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.imageKey(rec.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	if !ok {
		return domain.ErrImageExists
	}

	imagesKey := r.imagesKey(rec.SessionID)
	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, imagesKey, redis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: rec.ID})
	pipe.Expire(ctx, imagesKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index image: %w", err)
	}
	return nil
}

// LoadImages returns the session's images newest first. Index entries whose
// record has expired are skipped.
func (r *RedisStore) LoadImages(ctx context.Context, sessionID string) ([]gendomain.GeneratedImageRecord, error) {
	ids, err := r.client.ZRevRange(ctx, r.imagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if len(ids) == 0 {
		return []gendomain.GeneratedImageRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.imageKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	out := make([]gendomain.GeneratedImageRecord, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec gendomain.GeneratedImageRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal image: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteImage removes the record, its index entry and any bookmark
func (r *RedisStore) DeleteImage(ctx context.Context, sessionID, imageID string) error {
	_, err := r.client.ZScore(ctx, r.imagesKey(sessionID), imageID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up image: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.imageKey(imageID))
	pipe.ZRem(ctx, r.imagesKey(sessionID), imageID)
	pipe.SRem(ctx, r.bookmarksKey(sessionID), imageID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// SetBookmark adds or removes imageID from the session's bookmark set
func (r *RedisStore) SetBookmark(ctx context.Context, sessionID, imageID string, bookmarked bool) error {
	key := r.bookmarksKey(sessionID)
	pipe := r.client.Pipeline()
	if bookmarked {
		pipe.SAdd(ctx, key, imageID)
	} else {
		pipe.SRem(ctx, key, imageID)
	}
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set bookmark: %w", err)
	}
	return nil
}

// LoadBookmarks returns the bookmarked image IDs of a session
func (r *RedisStore) LoadBookmarks(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.bookmarksKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return ids, nil
}

func (r *RedisStore) imageKey(imageID string) string {
	return fmt.Sprintf("%s%s", imageKeyPrefix, imageID)
}

func (r *RedisStore) imagesKey(sessionID string) string {
	return fmt.Sprintf("%s%s:images", sessionKeyPrefix, sessionID)
}

func (r *RedisStore) bookmarksKey(sessionID string) string {
	return fmt.Sprintf("%s%s:bookmarks", sessionKeyPrefix, sessionID)
}
