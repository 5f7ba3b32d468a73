//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinmap/internal/platform/config"
	platformredis "pinmap/internal/platform/redis"
	"pinmap/pkg/testutil/containers"
)

func newRedisStore(t *testing.T, ttl time.Duration) *Redis {
	t.Helper()
	rc := containers.NewRedisContainer(t)

	client, err := platformredis.New(config.RedisConfig{
		URL:          rc.URL,
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t, time.Hour)

	_, ok := store.Get(ctx, "alice")
	require.False(t, ok)

	want := Verdict{Accepted: true, Strategy: "primary", ObservedAt: time.Now().Unix()}
	store.Put(ctx, "alice", want)

	got, ok := store.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = store.Get(ctx, "bob")
	assert.False(t, ok, "keys must not collide")
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t, 500*time.Millisecond)

	store.Put(ctx, "ephemeral", Verdict{Accepted: true, Strategy: "primary"})

	_, ok := store.Get(ctx, "ephemeral")
	require.True(t, ok)

	time.Sleep(time.Second)
	_, ok = store.Get(ctx, "ephemeral")
	assert.False(t, ok, "entry must expire with the TTL")
}
