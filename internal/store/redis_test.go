package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) fixture {
		s, mr := newTestRedis(t)
		return fixture{kv: s, advance: mr.FastForward}
	})
}

func TestRedisStoreSetsTTL(t *testing.T) {
	s, mr := newTestRedis(t)

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("k"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newTestRedis(t)
	mr.Close()

	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
}
