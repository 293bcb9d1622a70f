package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

const defaultCacheTTL = 5 * time.Minute

// CachedStore is a Redis read-through cache in front of another Store.
// Redis failures fall through to the underlying store.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps next. A nil Redis client disables caching.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedStore{next: next, redis: client, ttl: ttl, logger: logger}
}

// ListStaff serves from cache when possible.
func (c *CachedStore) ListStaff(ctx context.Context, limit int) ([]StaffRecord, error) {
	var staff []StaffRecord
	key := cacheKey("staff", limit)
	if c.load(ctx, key, &staff) {
		return staff, nil
	}
	staff, err := c.next.ListStaff(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, staff)
	return staff, nil
}

// ListArticles serves from cache when possible.
func (c *CachedStore) ListArticles(ctx context.Context, limit int) ([]ArticleRecord, error) {
	var articles []ArticleRecord
	key := cacheKey("articles", limit)
	if c.load(ctx, key, &articles) {
		return articles, nil
	}
	articles, err := c.next.ListArticles(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, articles)
	return articles, nil
}

// Invalidate drops every cached catalog page.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, "catalog:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("catalog: invalidate %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("catalog: scan cache keys: %w", err)
	}
	return nil
}

func (c *CachedStore) load(ctx context.Context, key string, dest any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("catalog cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachedStore) store(ctx context.Context, key string, value any) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func cacheKey(kind string, limit int) string {
	return fmt.Sprintf("catalog:%s:%d", kind, clampLimit(limit))
}
