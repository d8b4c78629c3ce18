package weather

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-shortcode/internal/metrics"
)

// TestCity is the place name used by TestConnection.
const TestCity = "London"

// sharedFetchTimeout bounds a coalesced fetch, which outlives the caller
// that started it. It covers a geocode and a forecast call.
const sharedFetchTimeout = 30 * time.Second

// Service answers current-weather queries, consulting the cache before the
// geocoder and forecast upstreams.
type Service struct {
	cache      *Cache
	geocoder   Geocoder
	forecaster Forecaster
	ttl        time.Duration

	// Coalesces concurrent misses for the same key.
	group singleflight.Group
}

// NewService wires a Service. ttl is used as-is; callers clamp it with ClampTTL.
func NewService(cache *Cache, geocoder Geocoder, forecaster Forecaster, ttl time.Duration) *Service {
	return &Service{
		cache:      cache,
		geocoder:   geocoder,
		forecaster: forecaster,
		ttl:        ttl,
	}
}

// TTL returns the duration entries are cached for.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Query returns the current conditions for placeName in the given unit.
// A failure of either upstream is returned unchanged and nothing is cached.
func (s *Service) Query(ctx context.Context, placeName string, unit Unit) (Report, error) {
	if placeName == "" {
		return Report{}, NewError(InvalidInput, "query", nil)
	}
	if !unit.Valid() {
		return Report{}, NewError(InvalidInput, "query", errInvalidUnit(unit))
	}

	if report, ok := s.cache.Get(ctx, placeName, unit); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return report, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// The shared fetch must not inherit one caller's cancellation: others
	// may be waiting on it. Each caller still stops waiting on its own ctx.
	ch := s.group.DoChan(CacheKey(placeName, unit), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.fetchAndStore(fetchCtx, placeName, unit)
	})

	select {
	case <-ctx.Done():
		return Report{}, NewError(Network, "query", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		if res.Shared {
			log.Debug().Str("city", placeName).Msg("query: joined in-flight fetch")
		}
		return res.Val.(Report), nil
	}
}

func (s *Service) fetchAndStore(ctx context.Context, placeName string, unit Unit) (Report, error) {
	report, err := s.fetch(ctx, placeName, unit)
	if err != nil {
		return Report{}, err
	}

	if err := s.cache.Put(ctx, placeName, unit, report, s.ttl); err != nil {
		// The result is still good; the next call simply misses again.
		log.Warn().Err(err).Str("city", placeName).Msg("query: cache write failed")
	}
	return report, nil
}

func (s *Service) fetch(ctx context.Context, placeName string, unit Unit) (Report, error) {
	coords, err := s.geocoder.Resolve(ctx, placeName)
	if err != nil {
		kind, _ := KindOf(err)
		metrics.UpstreamFailures.WithLabelValues("geocode", kind.String()).Inc()
		log.Info().Err(err).Str("city", placeName).Msg("query: geocoding failed")
		return Report{}, err
	}

	cond, err := s.forecaster.Fetch(ctx, coords, unit)
	if err != nil {
		kind, _ := KindOf(err)
		metrics.UpstreamFailures.WithLabelValues("forecast", kind.String()).Inc()
		log.Info().Err(err).Str("city", placeName).Msg("query: forecast failed")
		return Report{}, err
	}

	return Report{
		Conditions: cond,
		City:       coords.ResolvedName,
		Country:    coords.Country,
	}, nil
}

// FlushCache removes every cached weather entry.
func (s *Service) FlushCache(ctx context.Context) (int, error) {
	n, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return n, err
	}
	metrics.CacheEvictions.WithLabelValues("flush").Add(float64(n))
	log.Info().Int("removed", n).Msg("weather cache flushed")
	return n, nil
}

// FlushExpired removes cached entries whose TTL has passed.
func (s *Service) FlushExpired(ctx context.Context) (int, error) {
	n, err := s.cache.InvalidateExpired(ctx)
	if err != nil {
		return n, err
	}
	metrics.CacheEvictions.WithLabelValues("expired").Add(float64(n))
	log.Debug().Int("removed", n).Msg("expired weather entries swept")
	return n, nil
}

// TestConnection exercises both upstreams for TestCity in celsius, bypassing
// the cache. The returned error's Op names the upstream that failed.
func (s *Service) TestConnection(ctx context.Context) (Report, error) {
	return s.fetch(ctx, TestCity, UnitCelsius)
}

type errInvalidUnit Unit

func (e errInvalidUnit) Error() string {
	return "unsupported unit " + string(e)
}
