package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	// Unique in-memory database per test.
	dsn := "file:cache_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	s, err := NewSQLStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) fixture {
		s := openTestSQLStore(t)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }
		return fixture{
			kv:            s,
			advance:       func(d time.Duration) { now = now.Add(d) },
			sweepsExpired: true,
		}
	})
}

func TestSQLStorePrefixIsLiteral(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLStore(t)

	require.NoError(t, s.Set(ctx, "a%b:1", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "axb:2", []byte("2"), 0))
	require.NoError(t, s.Set(ctx, "a_c:3", []byte("3"), 0))
	require.NoError(t, s.Set(ctx, "azc:4", []byte("4"), 0))

	n, err := s.DeleteByPrefix(ctx, "a%b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.DeleteByPrefix(ctx, "a_c")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := s.Get(ctx, "axb:2")
	assert.True(t, ok)
	_, ok, _ = s.Get(ctx, "azc:4")
	assert.True(t, ok)
}

func TestOpenSQLite(t *testing.T) {
	s, err := OpenSQLite("file:" + t.TempDir() + "/cache.db")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Hour))
	v, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
