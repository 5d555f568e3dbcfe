//go:build integration

package containers

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"casbinder/internal/platform/config"
	platformredis "casbinder/internal/platform/redis"
)

// RedisContainer is a disposable Redis reached through the same connector
// the server uses.
type RedisContainer struct {
	Container *tcredis.RedisContainer
	URL       string
	Client    *goredis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err == nil {
		var client *goredis.Client
		client, err = platformredis.Connect(ctx, config.RedisConfig{URL: url, PoolSize: 4})
		if err == nil {
			return &RedisContainer{Container: container, URL: url, Client: client}
		}
	}
	_ = container.Terminate(ctx)
	t.Fatalf("connect redis: %v", err)
	return nil
}

// FlushAll empties the database between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
