package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the history document lives unless overridden.
const DefaultRedisKey = "taixiu:history"

// RedisBackend stores the history document under a single Redis key.
type RedisBackend struct {
	client *backend.Client
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithRedisKey overrides the storage key.
func WithRedisKey(key string) RedisOption {
	return func(b *RedisBackend) {
		if key != "" {
			b.key = key
		}
	}
}

// WithRedisTTL expires the document after ttl of inactivity. Zero keeps it forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(b *RedisBackend) {
		b.ttl = ttl
	}
}

// NewRedisBackend connects to a Redis server.
func NewRedisBackend(address, password string, db int, opts ...RedisOption) *RedisBackend {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisBackendFromClient(client, opts...)
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *backend.Client, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		client: client,
		key:    DefaultRedisKey,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements Backend.
func (b *RedisBackend) Name() string {
	return "redis"
}

// Load implements Backend.
func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", b.key, err)
	}
	return data, nil
}

// Save implements Backend.
func (b *RedisBackend) Save(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", b.key, err)
	}
	return nil
}

// Ping implements Pinger.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the client connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
