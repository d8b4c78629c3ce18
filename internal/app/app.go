// Package app builds the weather service and its collaborators from
// configuration. Both the HTTP server and weatherctl start here.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-shortcode/internal/config"
	"github.com/i474232898/weather-shortcode/internal/store"
	"github.com/i474232898/weather-shortcode/internal/weather"
	"github.com/i474232898/weather-shortcode/internal/weather/providers"
)

// App holds the wired service and the store backing its cache.
type App struct {
	Config  *config.AppConfig
	Service *weather.Service
	Store   weather.KVStore

	closer io.Closer
}

// Build wires an App from cfg. The caller must Close it.
func Build(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	kv, closer, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound upstream calls.
	httpCfg := providers.NewHTTPClientConfig(&http.Client{Timeout: cfg.Upstream.Timeout}, cfg.Upstream.MaxRetries)

	var geocoder weather.Geocoder
	switch cfg.Upstream.Geocoder {
	case "google":
		geocoder = providers.NewGoogleGeocoder(cfg.Upstream.GoogleAPIKey, cfg.Upstream.Timeout)
	default:
		geocoder = providers.NewOpenMeteoGeocoder(cfg.Upstream.GeocodingURL, httpCfg)
	}
	forecaster := providers.NewOpenMeteoForecaster(cfg.Upstream.ForecastURL, httpCfg)

	svc := weather.NewService(weather.NewCache(kv), geocoder, forecaster, cfg.Settings.CacheTTL())

	log.Info().
		Str("backend", cfg.Cache.Backend).
		Str("geocoder", cfg.Upstream.Geocoder).
		Dur("ttl", svc.TTL()).
		Msg("weather service ready")

	return &App{Config: cfg, Service: svc, Store: kv, closer: closer}, nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

type storeCloser interface {
	weather.KVStore
	io.Closer
}

func openStore(ctx context.Context, cfg config.CacheConfig) (weather.KVStore, io.Closer, error) {
	var s storeCloser
	switch cfg.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		s = store.NewRedisStore(rdb)
	case "sqlite":
		sqlStore, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s = sqlStore
	default:
		s = store.NewMemoryStore(cfg.MaxEntries)
	}
	return s, s, nil
}
