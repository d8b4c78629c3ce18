package weather

import (
	"context"
	"time"
)

// Geocoder resolves a free-text place name to coordinates.
// Implementations return a *QueryError of kind Network or NotFound on failure.
type Geocoder interface {
	Resolve(ctx context.Context, placeName string) (Coordinates, error)
}

// Forecaster fetches current conditions for a coordinate pair.
// Implementations return a *QueryError of kind Network or MalformedResponse on failure.
type Forecaster interface {
	Fetch(ctx context.Context, coords Coordinates, unit Unit) (CurrentConditions, error)
}

// KVStore is the key/value capability the cache is built on. Stores either
// expire keys natively or sweep them when DeleteExpired is called.
type KVStore interface {
	// Get returns the value for key; ok is false for absent or expired keys.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
}
