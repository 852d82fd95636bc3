package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appclient "github.com/agency/backend/internal/application/client"
	"github.com/redis/go-redis/v9"
)

// DefaultStatusCheckTTL is used when no lifetime is configured
const DefaultStatusCheckTTL = 5 * time.Minute

const statusCheckPrefix = "agency:status-check:"

// RedisStatusCache caches public status-check payloads in Redis
type RedisStatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStatusCache creates a status cache on a shared Redis client
func NewRedisStatusCache(client redis.Cmdable, ttl time.Duration) *RedisStatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusCheckTTL
	}
	return &RedisStatusCache{client: client, ttl: ttl}
}

// Get returns the cached payload for a passport number
func (c *RedisStatusCache) Get(ctx context.Context, passportNumber string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, statusCheckPrefix+passportNumber).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read status cache: %w", err)
	}
	return payload, true, nil
}

// Set stores a payload for the configured TTL
func (c *RedisStatusCache) Set(ctx context.Context, passportNumber string, payload []byte) error {
	if err := c.client.Set(ctx, statusCheckPrefix+passportNumber, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status cache: %w", err)
	}
	return nil
}

// Delete evicts the given passport numbers
func (c *RedisStatusCache) Delete(ctx context.Context, passportNumbers ...string) error {
	if len(passportNumbers) == 0 {
		return nil
	}
	keys := make([]string, len(passportNumbers))
	for i, p := range passportNumbers {
		keys[i] = statusCheckPrefix + p
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to evict status cache: %w", err)
	}
	return nil
}

type statusEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryStatusCache is the single-instance status cache
type InMemoryStatusCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]statusEntry
	now     func() time.Time
}

// NewInMemoryStatusCache creates an in-memory status cache
func NewInMemoryStatusCache(ttl time.Duration) *InMemoryStatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusCheckTTL
	}
	return &InMemoryStatusCache{
		ttl:     ttl,
		entries: make(map[string]statusEntry),
		now:     time.Now,
	}
}

// Get returns a live cached payload
func (c *InMemoryStatusCache) Get(_ context.Context, passportNumber string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[passportNumber]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set stores a copy of payload
func (c *InMemoryStatusCache) Set(_ context.Context, passportNumber string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[passportNumber] = statusEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Delete evicts the given passport numbers
func (c *InMemoryStatusCache) Delete(_ context.Context, passportNumbers ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range passportNumbers {
		delete(c.entries, p)
	}
	return nil
}

var (
	_ appclient.StatusCache = (*RedisStatusCache)(nil)
	_ appclient.StatusCache = (*InMemoryStatusCache)(nil)
)
