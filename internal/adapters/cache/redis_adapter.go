package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/pricefinder/internal/domain/providers"
	redisclient "github.com/zatekoja/pricefinder/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

// DefaultNamespace prefixes every key written by the service
const DefaultNamespace = "pricefinder:"

// RedisAdapter implements CacheProvider over a shared Redis instance.
// Keys are stored under a namespace so several services can share one database.
type RedisAdapter struct {
	client    *redisclient.Client
	namespace string
}

// NewRedisAdapter creates a Redis cache adapter writing under DefaultNamespace
func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return NewRedisAdapterWithNamespace(client, DefaultNamespace)
}

// NewRedisAdapterWithNamespace creates a Redis cache adapter writing under namespace
func NewRedisAdapterWithNamespace(client *redisclient.Client, namespace string) *RedisAdapter {
	return &RedisAdapter{client: client, namespace: namespace}
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// Key returns the namespaced form of key as stored in Redis
func (a *RedisAdapter) Key(key string) string {
	return a.namespace + key
}

// Get retrieves a value, returning ErrCacheMiss for absent or expired keys
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, apperrors.NewExternalError("cache get failed", err)
	}
	return result, nil
}

// Set stores a value with expiration. A zero ttl keeps the key forever.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := a.client.Client().Set(ctx, a.Key(key), value, ttl).Err(); err != nil {
		return apperrors.NewExternalError("cache set failed", err)
	}
	return nil
}

// Delete removes a value
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, a.Key(key)).Err(); err != nil {
		return apperrors.NewExternalError("cache delete failed", err)
	}
	return nil
}
