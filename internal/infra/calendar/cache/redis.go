package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "tinyhome:calendar:feed"

// RedisStore shares one snapshot between every process pointing at the same key.
type RedisStore struct {
	Client redis.Cmdable
	Key    string
	// Expiration bounds how long a snapshot survives in redis. Zero keeps it until expired.
	Expiration time.Duration
}

func NewRedisStore(client redis.Cmdable, key string, expiration time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{Client: client, Key: key, Expiration: expiration}
}

func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.Client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.Key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, s.Key, raw, s.Expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}

func (s *RedisStore) Expire(ctx context.Context) error {
	if err := s.Client.Del(ctx, s.Key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.Key, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
