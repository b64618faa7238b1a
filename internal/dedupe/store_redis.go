package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	submissionKeyPrefix = "dedupe:submission:"
	pendingMarker       = "pending"
)

// RedisStore shares the dedup window across instances. Reservations use
// SET NX so that two instances racing on the same submission id cannot both
// win; expiry is left to Redis TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Acquire(ctx context.Context, id string, _ time.Time) (*Record, bool, error) {
	key := submissionKeyPrefix + id
	set, err := s.client.SetNX(ctx, key, pendingMarker, TTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reserving submission %s: %w", id, err)
	}
	if set {
		return nil, true, nil
	}

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// The entry expired between SETNX and GET; treat as a lost race.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading submission %s: %w", id, err)
	}
	if val == pendingMarker {
		return nil, false, nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, false, fmt.Errorf("decoding submission %s: %w", id, err)
	}
	return &rec, false, nil
}

func (s *RedisStore) Complete(ctx context.Context, id string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding submission %s: %w", id, err)
	}
	return s.client.Set(ctx, submissionKeyPrefix+id, payload, TTL).Err()
}

func (s *RedisStore) Release(ctx context.Context, id string) error {
	return s.client.Del(ctx, submissionKeyPrefix+id).Err()
}
