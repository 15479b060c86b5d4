package tokenstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/tokenstore"
)

func newRedisStore(t *testing.T, opts ...tokenstore.RedisOption) (*tokenstore.Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return tokenstore.NewRedis(client, opts...), srv
}

func TestRedis(t *testing.T) {
	t.Parallel()

	t.Run("stores and returns tokens", func(t *testing.T) {
		t.Parallel()

		store, _ := newRedisStore(t)
		ctx := context.Background()

		store.SetAccessToken(ctx, "access-1")
		store.SetRefreshToken(ctx, "refresh-1")

		assert.Equal(t, "access-1", store.AccessToken(ctx))
		assert.Equal(t, "refresh-1", store.RefreshToken(ctx))
	})

	t.Run("uses fixed keys", func(t *testing.T) {
		t.Parallel()

		store, srv := newRedisStore(t)
		store.SetAccessToken(context.Background(), "access-1")

		got, err := srv.Get(tokenstore.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "access-1", got)
	})

	t.Run("key prefix namespaces all keys", func(t *testing.T) {
		t.Parallel()

		store, srv := newRedisStore(t, tokenstore.WithRedisKeyPrefix("adminapp"))
		store.SetAccessToken(context.Background(), "access-1")

		got, err := srv.Get("adminapp:" + tokenstore.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "access-1", got)
	})

	t.Run("empty token deletes the key", func(t *testing.T) {
		t.Parallel()

		store, srv := newRedisStore(t)
		ctx := context.Background()

		store.SetAccessToken(ctx, "access-1")
		store.SetAccessToken(ctx, "")

		assert.False(t, srv.Exists(tokenstore.KeyAccessToken))
		assert.Empty(t, store.AccessToken(ctx))
	})

	t.Run("clear removes tokens and snapshot", func(t *testing.T) {
		t.Parallel()

		store, srv := newRedisStore(t)
		ctx := context.Background()

		store.SetAccessToken(ctx, "access-1")
		store.SetRefreshToken(ctx, "refresh-1")
		store.SaveSnapshot(ctx, []byte(`{}`))
		store.Clear(ctx)

		assert.False(t, srv.Exists(tokenstore.KeyAccessToken))
		assert.False(t, srv.Exists(tokenstore.KeyRefreshToken))
		assert.False(t, srv.Exists(tokenstore.KeySnapshot))
	})

	t.Run("unavailable server degrades to empty reads", func(t *testing.T) {
		t.Parallel()

		store, srv := newRedisStore(t)
		ctx := context.Background()

		store.SetAccessToken(ctx, "access-1")
		srv.Close()

		// Writes and reads must not panic or surface errors.
		assert.NotPanics(t, func() {
			store.SetAccessToken(ctx, "access-2")
			assert.Empty(t, store.AccessToken(ctx))
		})
	})
}
