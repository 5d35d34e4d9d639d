package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/davinci-studio/studio-backend/internal/gallery/domain"
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func record(id, sessionID string, ts time.Time) gendomain.GeneratedImageRecord {
	return gendomain.GeneratedImageRecord{
		ID:          id,
		SessionID:   sessionID,
		URL:         "https://cdn.test/" + id + ".png",
		Prompt:      "a harbor in fog",
		AspectRatio: "16:9",
		Model:       "flux",
		Timestamp:   ts.UTC(),
	}
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveImage(ctx, record("old", "s1", base)))
	require.NoError(t, store.SaveImage(ctx, record("new", "s1", base.Add(time.Second))))
	require.NoError(t, store.SaveImage(ctx, record("other", "s2", base)))

	got, err := store.LoadImages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
	assert.Equal(t, record("old", "s1", base), got[1])

	assert.True(t, mr.Exists("studio:image:old"))
	assert.Equal(t, time.Hour, mr.TTL("studio:session:s1:images"))

	t.Run("duplicate id is rejected", func(t *testing.T) {
		err := store.SaveImage(ctx, record("old", "s1", base))
		assert.ErrorIs(t, err, domain.ErrImageExists)
	})

	t.Run("empty session", func(t *testing.T) {
		got, err := store.LoadImages(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("expired records are skipped", func(t *testing.T) {
		mr.Del("studio:image:new")
		got, err := store.LoadImages(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "old", got[0].ID)
	})
}

func TestRedisStore_Bookmarks(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveImage(ctx, record("a", "s1", time.Now())))

	require.NoError(t, store.SetBookmark(ctx, "s1", "a", true))
	require.NoError(t, store.SetBookmark(ctx, "s1", "a", true))
	ids, err := store.LoadBookmarks(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	require.NoError(t, store.SetBookmark(ctx, "s1", "a", false))
	ids, err = store.LoadBookmarks(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_DeleteImage(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveImage(ctx, record("a", "s1", time.Now())))
	require.NoError(t, store.SetBookmark(ctx, "s1", "a", true))

	t.Run("wrong session", func(t *testing.T) {
		assert.ErrorIs(t, store.DeleteImage(ctx, "s2", "a"), domain.ErrImageNotFound)
	})

	require.NoError(t, store.DeleteImage(ctx, "s1", "a"))
	assert.False(t, mr.Exists("studio:image:a"))

	images, err := store.LoadImages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, images)
	ids, err := store.LoadBookmarks(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, store.DeleteImage(ctx, "s1", "a"), domain.ErrImageNotFound)
}
