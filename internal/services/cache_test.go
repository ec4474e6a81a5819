package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestEntryCache_RoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewEntryCache(client, time.Minute)
	ctx := context.Background()

	e := &models.Entry{
		ID:         primitive.NewObjectID(),
		OwnerID:    owner,
		Title:      "Hello",
		Visibility: models.VisibilityPublic,
		Tags:       []string{"a"},
	}

	_, ok, err := cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, e))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey("entry", e.ID.Hex())))

	got, ok, err := cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "Hello", got.Title)

	require.NoError(t, cache.Invalidate(ctx, e.ID.Hex()))
	_, ok, err = cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntryCache_InvalidateBlocksStaleWriteBack(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewEntryCache(client, time.Minute)
	ctx := context.Background()

	e := &models.Entry{ID: primitive.NewObjectID(), Title: "Old", Visibility: models.VisibilityPublic}
	key := CacheKey("entry", e.ID.Hex())

	require.NoError(t, cache.Invalidate(ctx, e.ID.Hex()))
	assert.Equal(t, TombstoneTTL, mr.TTL(key))

	require.NoError(t, cache.Set(ctx, e))
	_, ok, err := cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(TombstoneTTL + time.Second)
	require.NoError(t, cache.Set(ctx, e))
	got, ok, err := cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Old", got.Title)
}

func TestEntryCache_InvalidateOverwritesCachedCopy(t *testing.T) {
	_, client := newRedis(t)
	cache := NewEntryCache(client, time.Minute)
	ctx := context.Background()

	e := &models.Entry{ID: primitive.NewObjectID(), Visibility: models.VisibilityPublic}
	require.NoError(t, cache.Set(ctx, e))
	require.NoError(t, cache.Invalidate(ctx, e.ID.Hex()))

	_, ok, err := cache.Get(ctx, e.ID.Hex())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntryCache_SkipsNonPublic(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewEntryCache(client, 0)

	e := &models.Entry{ID: primitive.NewObjectID(), Visibility: models.VisibilityDraft}
	require.NoError(t, cache.Set(context.Background(), e))
	assert.False(t, mr.Exists(CacheKey("entry", e.ID.Hex())))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "cache:entry:abc", CacheKey("entry", "abc"))
}
