package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

// fixture is a store under test plus a way to move its clock.
type fixture struct {
	kv      weather.KVStore
	advance func(time.Duration)

	// Stores that expire keys natively report nothing from DeleteExpired.
	sweepsExpired bool
}

func runStoreSuite(t *testing.T, open func(t *testing.T) fixture) {
	t.Run("get missing", func(t *testing.T) {
		f := open(t)
		_, ok, err := f.kv.Get(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set overwrites", func(t *testing.T) {
		f := open(t)
		ctx := context.Background()
		require.NoError(t, f.kv.Set(ctx, "k", []byte("one"), time.Hour))
		require.NoError(t, f.kv.Set(ctx, "k", []byte("two"), time.Hour))

		v, ok, err := f.kv.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("two"), v)
	})

	t.Run("expiry hides entries", func(t *testing.T) {
		f := open(t)
		ctx := context.Background()
		require.NoError(t, f.kv.Set(ctx, "short", []byte("a"), 5*time.Minute))
		require.NoError(t, f.kv.Set(ctx, "long", []byte("b"), time.Hour))
		require.NoError(t, f.kv.Set(ctx, "forever", []byte("c"), 0))

		f.advance(10 * time.Minute)

		_, ok, err := f.kv.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, _ = f.kv.Get(ctx, "long")
		assert.True(t, ok)
		_, ok, _ = f.kv.Get(ctx, "forever")
		assert.True(t, ok)

		n, err := f.kv.DeleteExpired(ctx)
		require.NoError(t, err)
		if f.sweepsExpired {
			assert.Equal(t, 1, n)
		} else {
			assert.Zero(t, n)
		}
		_, ok, _ = f.kv.Get(ctx, "long")
		assert.True(t, ok)
	})

	t.Run("delete by prefix", func(t *testing.T) {
		f := open(t)
		ctx := context.Background()
		paris := weather.CacheKey("Paris", weather.UnitCelsius)
		rome := weather.CacheKey("Rome", weather.UnitFahrenheit)
		require.NoError(t, f.kv.Set(ctx, paris, []byte("p"), time.Hour))
		require.NoError(t, f.kv.Set(ctx, rome, []byte("r"), time.Hour))
		require.NoError(t, f.kv.Set(ctx, "session:1", []byte("s"), time.Hour))
		require.NoError(t, f.kv.Set(ctx, "weather_current_x", []byte("w"), time.Hour))

		n, err := f.kv.DeleteByPrefix(ctx, weather.CacheKeyPrefix)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, ok, _ := f.kv.Get(ctx, paris)
		assert.False(t, ok)
		_, ok, _ = f.kv.Get(ctx, "session:1")
		assert.True(t, ok)
		_, ok, _ = f.kv.Get(ctx, "weather_current_x")
		assert.True(t, ok)

		n, err = f.kv.DeleteByPrefix(ctx, weather.CacheKeyPrefix)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
