// Package cache is the read-acceleration collaborator used by availability
// reads: short-TTL memoization in Redis, in-flight request de-duplication,
// and bounded retry with linear backoff for transient loader failures.
//
// Cached values are stale-tolerant hints only. Nothing on the booking write
// path reads through this package; slot uniqueness is enforced by the
// appointments table.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a cache miss. Loaders must be
// idempotent reads; they may be retried.
type Loader func(ctx context.Context) (any, error)

type Cache interface {
	// GetJSON unmarshals the cached value for key into dest, calling load on
	// a miss and storing the result for ttl.
	GetJSON(ctx context.Context, key string, ttl time.Duration, dest any, load Loader) error

	// Invalidate drops keys, best effort. Used by admin writes so settings
	// edits show up before the TTL lapses.
	Invalidate(ctx context.Context, keys ...string)
}

type RedisCache struct {
	rdb     *redis.Client
	group   singleflight.Group
	retries int
	backoff time.Duration

	// OnLookup, when set, is told about every hit/miss.
	OnLookup func(hit bool)
}

func NewRedis(rdb *redis.Client, retries int, backoff time.Duration) *RedisCache {
	return &RedisCache{
		rdb:     rdb,
		retries: retries,
		backoff: backoff,
	}
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, ttl time.Duration, dest any, load Loader) error {
	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			c.lookup(true)
			return data, nil
		}
		if err != redis.Nil {
			// A broken cache degrades to a direct read.
			log.Printf("cache read %s: %v", key, err)
		}
		c.lookup(false)

		val, err := loadWithRetry(ctx, load, c.retries, c.backoff)
		if err != nil {
			return nil, err
		}

		data, err = json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal cache value for %s: %w", key, err)
		}

		if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			log.Printf("cache write %s: %v", key, err)
		}

		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(v.([]byte), dest)
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache invalidate %v: %v", keys, err)
	}
}

func (c *RedisCache) lookup(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}

// PassThrough calls loaders directly, keeping the retry policy but no
// memoization. Used when Redis is absent and in tests.
type PassThrough struct {
	retries int
	backoff time.Duration
}

func NewPassThrough(retries int, backoff time.Duration) *PassThrough {
	return &PassThrough{retries: retries, backoff: backoff}
}

func (c *PassThrough) GetJSON(ctx context.Context, key string, ttl time.Duration, dest any, load Loader) error {
	val, err := loadWithRetry(ctx, load, c.retries, c.backoff)
	if err != nil {
		return err
	}

	// Roundtrip through JSON so both implementations hand callers the same
	// shape of value.
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

func (c *PassThrough) Invalidate(ctx context.Context, keys ...string) {}

func loadWithRetry(ctx context.Context, load Loader, retries int, backoff time.Duration) (any, error) {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		val, err := load(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if attempt == retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}

	return nil, lastErr
}
