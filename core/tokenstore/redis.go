package tokenstore

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Redis persists credentials in a Redis-compatible store. Intended for headless
// agents and worker fleets that share one identity, where the file store's
// single-host durability is not enough.
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisKeyPrefix namespaces all keys, letting several applications share
// one Redis database.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRedisLogger sets the logger used to report swallowed persistence failures.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRedis creates a Redis-backed store on an existing client.
// The client's lifecycle remains the caller's responsibility.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) SetAccessToken(ctx context.Context, token string) {
	r.set(ctx, KeyAccessToken, []byte(token))
}

func (r *Redis) SetRefreshToken(ctx context.Context, token string) {
	r.set(ctx, KeyRefreshToken, []byte(token))
}

func (r *Redis) AccessToken(ctx context.Context) string {
	return string(r.get(ctx, KeyAccessToken))
}

func (r *Redis) RefreshToken(ctx context.Context) string {
	return string(r.get(ctx, KeyRefreshToken))
}

func (r *Redis) Clear(ctx context.Context) {
	keys := []string{r.key(KeyAccessToken), r.key(KeyRefreshToken), r.key(KeySnapshot)}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.WarnContext(ctx, "failed to clear credentials from redis",
			slog.Any("error", err))
	}
}

func (r *Redis) SaveSnapshot(ctx context.Context, blob []byte) {
	r.set(ctx, KeySnapshot, blob)
}

func (r *Redis) LoadSnapshot(ctx context.Context) []byte {
	return r.get(ctx, KeySnapshot)
}

// Tokens have no TTL here: expiry is tracked by the session manager, and an
// expired token in the store simply fails its next refresh.
func (r *Redis) set(ctx context.Context, key string, value []byte) {
	if len(value) == 0 {
		if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
			r.logger.WarnContext(ctx, "failed to delete credential from redis",
				slog.String("key", key), slog.Any("error", err))
		}
		return
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.WarnContext(ctx, "failed to write credential to redis",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (r *Redis) get(ctx context.Context, key string) []byte {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "failed to read credential from redis",
				slog.String("key", key), slog.Any("error", err))
		}
		return nil
	}
	return data
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}
