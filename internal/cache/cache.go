// Package cache provides a write-through, TTL-bounded result cache backed by
// Redis. It is used as a cache-aside helper around pure computations: callers
// hand over a key and a compute function, and the helper fills in the rest.
// When Redis is not configured or unreachable the cache degrades to a
// transparent pass-through; it never fails a caller.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal key-value surface the cache needs. The production
// implementation wraps a Redis client; tests may substitute an in-memory map.
type Store interface {
	// Get returns the raw payload for key, or ErrMiss when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores the payload under key for the given lifetime.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// ErrMiss is returned by Store.Get when a key is not present.
var ErrMiss = errors.New("cache miss")

type redisStore struct {
	rdb *redis.Client
}

func (s redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (s redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.SetEx(ctx, key, val, ttl).Err()
}

// ResultCache caches JSON-encoded values with a fixed TTL.
type ResultCache struct {
	st  Store
	ttl time.Duration
}

// New returns a ResultCache backed by rdb. A nil client yields a disabled
// cache: lookups always miss and stores are dropped, so callers behave as if
// no cache existed.
func New(rdb *redis.Client, ttl time.Duration) *ResultCache {
	c := &ResultCache{ttl: ttl}
	if rdb != nil {
		c.st = redisStore{rdb: rdb}
	}
	return c
}

// NewWithStore returns a ResultCache over an arbitrary Store.
func NewWithStore(st Store, ttl time.Duration) *ResultCache {
	return &ResultCache{st: st, ttl: ttl}
}

// Key builds a deterministic cache key from the given parts. Parts are joined
// in order and hashed, so equal parameter sets always map to the same key and
// the key stays a fixed size regardless of input length.
func Key(prefix string, parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// Through runs compute behind the cache: a hit decodes the stored value, a
// miss computes fresh and stores the result before returning it. Store errors
// are logged and otherwise ignored; compute errors are returned verbatim and
// nothing is cached.
func Through[T any](ctx context.Context, c *ResultCache, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.st == nil {
		return compute(ctx)
	}
	if b, err := c.st.Get(ctx, key); err == nil {
		var v T
		if jerr := json.Unmarshal(b, &v); jerr == nil {
			return v, nil
		}
		// Undecodable entry: fall through and recompute.
	} else if !errors.Is(err, ErrMiss) {
		log.Printf("cache: get %s failed: %v", key, err)
	}
	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if b, jerr := json.Marshal(v); jerr == nil {
		if serr := c.st.Set(ctx, key, b, c.ttl); serr != nil {
			log.Printf("cache: set %s failed: %v", key, serr)
		}
	}
	return v, nil
}
