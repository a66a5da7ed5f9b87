package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store backs both the response cache and the counter cache. Both are
// advisory: every caller treats errors as a miss and falls back to MySQL.
type Store struct {
	rdb *redis.Client
}

func NewStore(addr, password string, db int) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// GetRef resolves a reference key: the stored value is the canonical key name
// and the canonical entry's value is returned.
func (s *Store) GetRef(ctx context.Context, refKey string) (string, bool, error) {
	canonical, ok, err := s.Get(ctx, refKey)
	if err != nil || !ok {
		return "", false, err
	}
	return s.Get(ctx, canonical)
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys; missing keys are a no-op.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// DeleteByPrefix removes every key sharing a prefix, used to invalidate
// paginated listings. SCAN keeps the walk incremental on a shared instance.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *Store) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *Store) SetCounter(ctx context.Context, key string, value int64) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) IncrCounterBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.rdb.IncrBy(ctx, key, delta).Result()
}

// DeleteCounter drops a counter so the next read rehydrates from the store of
// record. DECRBY is deliberately not offered: on an absent key it would
// create the counter at a negative value and pin it there.
func (s *Store) DeleteCounter(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
