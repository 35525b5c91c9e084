package persist

import (
	"context"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"
)

// Redis is a Backend storing each key as a Redis string under a prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. Keys are stored as prefix+key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Key returns the Redis key used for key.
func (r *Redis) Key(key string) string {
	return r.prefix + key
}

// Get implements Backend
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put implements Backend
func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.Key(key), data, 0).Err()
}

// Delete implements Backend
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.Key(key)).Err()
}

// Keys implements Backend using SCAN so large keyspaces are not blocked.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	return keys, iter.Err()
}

// Close implements Backend
func (r *Redis) Close() error {
	return r.client.Close()
}
