package store

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

var _ weather.KVStore = (*RedisStore)(nil)

const scanBatch = 100

// RedisStore keeps entries in Redis, which expires keys on its own.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrapf(err, "redis get %s", key)
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return pkgerrors.Wrapf(s.rdb.Set(ctx, key, value, ttl).Err(), "redis set %s", key)
}

func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	n := 0
	for iter.Next(ctx) {
		removed, err := s.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return n, pkgerrors.Wrapf(err, "redis del %s", iter.Val())
		}
		n += int(removed)
	}
	if err := iter.Err(); err != nil {
		return n, pkgerrors.Wrap(err, "redis scan")
	}
	return n, nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (s *RedisStore) DeleteExpired(context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
