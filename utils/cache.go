package utils

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = time.Hour

// Cache is a byte-oriented TTL cache. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, b []byte, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Clock returns the current time. Tests substitute a fixed or stepping clock.
type Clock func() time.Time

// CacheGetJSON decodes the cached value for key into v.
func CacheGetJSON(ctx context.Context, c Cache, key string, v interface{}) bool {
	b, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// CacheSetJSON marshals v and stores the JSON bytes.
func CacheSetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, b, ttl)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     Clock
}

// NewMemoryCache creates a MemoryCache. A nil clock uses time.Now.
func NewMemoryCache(clock Clock) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{entries: map[string]memoryEntry{}, now: clock}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: cp, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

func (m *MemoryCache) InvalidatePrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisCache stores entries in Redis. Errors degrade to cache misses.
type RedisCache struct {
	rc     *redis.Client
	prefix string
}

// NewRedisCache wraps a Redis client; every key is namespaced with prefix.
func NewRedisCache(rc *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rc: rc, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := r.rc.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if Sugar != nil && err != redis.Nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.rc.Set(ctx, r.prefix+key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

// InvalidatePrefix deletes keys that match the given prefix using SCAN.
func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bounded number of SCAN rounds
		keys, cur, err := r.rc.Scan(ctx, cursor, r.prefix+prefix+"*", 1000).Result()
		if err != nil {
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := r.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			break
		}
	}
}
