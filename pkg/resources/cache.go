package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore is a Redis read-through cache over another Store. Cache
// trouble is logged and bypassed: resource lookup sits on the crisis
// response path and must not fail because Redis is down.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedStore wraps inner with a cache on the Redis instance at redisURL.
func NewCachedStore(inner Store, redisURL string, ttl time.Duration) (*CachedStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &CachedStore{
		inner: inner,
		rdb:   redis.NewClient(opts),
		ttl:   ttl,
	}, nil
}

// NewCachedStoreWithClient is used by tests to inject a miniredis-backed
// client.
func NewCachedStoreWithClient(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(region, language string) string {
	return fmt.Sprintf("resources:%s:%s", region, language)
}

func (c *CachedStore) Lookup(ctx context.Context, region, language string) ([]Resource, error) {
	key := cacheKey(region, language)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []Resource
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// Unreadable cache entry: drop it and fall through to the source.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[RESOURCES] cache read failed, serving from source: %v", err)
	}

	out, err := c.inner.Lookup(ctx, region, language)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("[RESOURCES] cache write failed: %v", err)
		}
	}
	return out, nil
}

// Close releases the Redis client.
func (c *CachedStore) Close() error { return c.rdb.Close() }
