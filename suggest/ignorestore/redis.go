package ignorestore

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Redis stores the ignore list as a Redis list.
type Redis struct {
	client *backend.Client
	key    string
}

type RedisOption func(*Redis)

// WithKey overrides the list key. The default is Key.
func WithKey(key string) RedisOption {
	return func(r *Redis) { r.key = key }
}

// NewRedis connects to the Redis server at addr.
func NewRedis(addr, password string, db int, opts ...RedisOption) *Redis {
	return NewRedisFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: Key}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Load(ctx context.Context) ([]string, error) {
	phrases, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load ignore list from redis: %w", err)
	}
	return normalize(phrases), nil
}

// Save replaces the list in one transaction.
func (r *Redis) Save(ctx context.Context, phrases []string) error {
	phrases = normalize(phrases)
	_, err := r.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(phrases) > 0 {
			vals := make([]any, len(phrases))
			for i, p := range phrases {
				vals[i] = p
			}
			pipe.RPush(ctx, r.key, vals...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save ignore list to redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
