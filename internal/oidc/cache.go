package oidc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ClaimsCache remembers successful introspections. Keys are token digests,
// never raw tokens.
type ClaimsCache interface {
	Get(ctx context.Context, key string) (Claims, bool, error)
	Set(ctx context.Context, key string, claims Claims, ttl time.Duration) error
}

// TokenKey derives the cache key for an access token.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryCache keeps claims in process.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (Claims, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.(Claims), true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, claims Claims, ttl time.Duration) error {
	m.cache.Set(key, claims, ttl)
	return nil
}

const redisKeyPrefix = "casbinder:oidc:claims:"

// RedisCache shares claims between replicas.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) (Claims, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get claims: %w", err)
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false, fmt.Errorf("decode cached claims: %w", err)
	}
	return claims, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, claims Claims, ttl time.Duration) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set claims: %w", err)
	}
	return nil
}
