package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"solidum/pkg/platform/sentinel"
)

const tokenKeyPrefix = "upload:token:"

// RedisStore shares upload tokens across instances. Expiry is delegated to
// Redis TTLs, so Get never observes an expired payload; a missing key is
// reported as not found.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, token string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding token payload: %w", err)
	}
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, tokenKeyPrefix+token, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string, now time.Time) (Data, error) {
	val, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return Data{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Data{}, fmt.Errorf("reading token: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return Data{}, fmt.Errorf("decoding token payload: %w", err)
	}
	// The Redis TTL normally handles expiry; the explicit check covers
	// clock skew between instances.
	if data.Expired(now) {
		_ = s.client.Del(ctx, tokenKeyPrefix+token).Err()
		return Data{}, sentinel.ErrExpired
	}
	return data, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}
