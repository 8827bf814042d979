package places

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores lookup results under opaque keys. A miss is (nil, false,
// nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]POI, bool, error)
	Set(ctx context.Context, key string, pois []POI, ttl time.Duration) error
}

type memoryEntry struct {
	pois      []POI
	expiresAt time.Time
}

// MemoryCache is a TTL map for single-process use. Expired entries are
// dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]POI, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]POI(nil), entry.pois...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, pois []POI, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		pois:      append([]POI(nil), pois...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// RedisCache shares lookup results across processes. Values are JSON;
// Redis owns expiry via the key TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "waymark:places:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]POI, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("places cache get: %w", err)
	}
	var pois []POI
	if err := json.Unmarshal(raw, &pois); err != nil {
		return nil, false, fmt.Errorf("places cache decode: %w", err)
	}
	return pois, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, pois []POI, ttl time.Duration) error {
	raw, err := json.Marshal(pois)
	if err != nil {
		return fmt.Errorf("places cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("places cache set: %w", err)
	}
	return nil
}
