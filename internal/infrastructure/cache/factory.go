package cache

import (
	"context"
	"fmt"
	"time"

	appclient "github.com/agency/backend/internal/application/client"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory owns the Redis connection and hands out the stores built on it.
// Without Redis every store falls back to its in-memory implementation.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing startup. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient opens a pooled Redis client and verifies it with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Connect dials Redis when a host is configured
func (f *Factory) Connect(ctx context.Context) error {
	if f.redisConfig.Host == "" {
		f.logger.Info("redis not configured, using in-memory caches")
		return nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory caches. "+
			"Idempotency keys will not be shared across instances.",
			zap.Error(err),
		)
		return nil
	}

	f.client = client
	f.logger.Info("connected to Redis", zap.String("addr", f.redisConfig.Addr()))
	return nil
}

// Client returns the Redis client, or nil when running in-memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// IdempotencyStore returns the store backing Idempotency-Key handling
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, defaultIdempotencyPrefix)
	}
	return NewInMemoryIdempotencyStore()
}

// StatusCache returns the cache for public status-check lookups
func (f *Factory) StatusCache(ttl time.Duration) appclient.StatusCache {
	if f.client != nil {
		return NewRedisStatusCache(f.client, ttl)
	}
	return NewInMemoryStatusCache(ttl)
}

// Ping checks Redis health; it always succeeds when running in-memory
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
