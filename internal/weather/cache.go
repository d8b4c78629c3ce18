package weather

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheKeyPrefix namespaces every key the cache writes so the whole set can
// be removed from a shared store without a secondary index.
const CacheKeyPrefix = "weather:current:"

// MinCacheTTL is the floor applied to configured cache durations.
const MinCacheTTL = 300 * time.Second

// ClampTTL raises ttl to MinCacheTTL when it is shorter.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	return ttl
}

// CacheKey derives the store key for a (placeName, unit) pair. The place
// name is hashed exactly as given: "London" and "london " are different keys.
func CacheKey(placeName string, unit Unit) string {
	sum := md5.Sum([]byte(placeName + string(unit)))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// cachedReport is the stored form: the conditions object with the resolved
// label alongside it.
type cachedReport struct {
	CurrentConditions
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Cache stores Reports in a KVStore. Expiry is left to the store.
type Cache struct {
	store KVStore
}

func NewCache(store KVStore) *Cache {
	return &Cache{store: store}
}

// Get returns the cached report for (placeName, unit). Store errors and
// undecodable entries are treated as misses.
func (c *Cache) Get(ctx context.Context, placeName string, unit Unit) (Report, bool) {
	key := CacheKey(placeName, unit)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed; treating as miss")
		return Report{}, false
	}
	if !ok {
		return Report{}, false
	}

	var cr cachedReport
	if err := json.Unmarshal(raw, &cr); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable; treating as miss")
		return Report{}, false
	}
	return Report{Conditions: cr.CurrentConditions, City: cr.City, Country: cr.Country}, true
}

// Put overwrites the entry for (placeName, unit).
func (c *Cache) Put(ctx context.Context, placeName string, unit Unit, report Report, ttl time.Duration) error {
	raw, err := json.Marshal(cachedReport{
		CurrentConditions: report.Conditions,
		City:              report.City,
		Country:           report.Country,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.store.Set(ctx, CacheKey(placeName, unit), raw, ttl)
}

// InvalidateAll removes every entry under CacheKeyPrefix.
func (c *Cache) InvalidateAll(ctx context.Context) (int, error) {
	return c.store.DeleteByPrefix(ctx, CacheKeyPrefix)
}

// InvalidateExpired removes entries whose TTL has passed.
func (c *Cache) InvalidateExpired(ctx context.Context) (int, error) {
	return c.store.DeleteExpired(ctx)
}
