package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when no TTL is configured
	DefaultCacheTTL = 10 * time.Minute
	// MaxCacheTTL caps configured TTLs
	MaxCacheTTL = 12 * time.Hour
	// TombstoneTTL must outlive any in-flight read that could write back a
	// stale copy. Reads run under the request timeout, which is shorter.
	TombstoneTTL = 30 * time.Second

	tombstone = "-"
)

// EntryCache keeps public entries in Redis for reads by id.
type EntryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewEntryCache(client redis.Cmdable, ttl time.Duration) *EntryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}
	return &EntryCache{client: client, ttl: ttl}
}

// Get reports a cache miss as (nil, false, nil). A tombstoned key is a miss.
func (c *EntryCache) Get(ctx context.Context, id string) (*models.Entry, bool, error) {
	val, err := c.client.Get(ctx, CacheKey("entry", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(val) == tombstone {
		return nil, false, nil
	}

	var e models.Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

// Set stores the entry unless the key already holds a value or a tombstone.
// Only public entries are ever cached.
func (c *EntryCache) Set(ctx context.Context, e *models.Entry) error {
	if e.Visibility != models.VisibilityPublic {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, CacheKey("entry", e.ID.Hex()), data, c.ttl).Err()
}

// Invalidate replaces the cached copy with a short-lived tombstone so a read
// that fetched the entry before the write cannot put it back.
func (c *EntryCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Set(ctx, CacheKey("entry", id), tombstone, TombstoneTTL).Err()
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s%s:%s", CacheKeyPrefix, resource, identifier)
}
