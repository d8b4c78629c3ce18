package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

// AppConfig is populated once at startup and not modified afterwards.
type AppConfig struct {
	Port       string `envconfig:"PORT" default:"8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	Settings  Settings
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
}

// Settings are the display and caching options an operator can change.
type Settings struct {
	DefaultUnit string `envconfig:"WEATHER_DEFAULT_UNIT" default:"celsius" validate:"oneof=celsius fahrenheit" json:"defaultUnit"`
	DefaultCity string `envconfig:"WEATHER_DEFAULT_CITY" default:"London" validate:"required,max=200" json:"defaultCity"`
	WidgetStyle string `envconfig:"WEATHER_WIDGET_STYLE" default:"card" validate:"oneof=card minimal detailed" json:"widgetStyle"`

	// CacheDuration is in seconds; see CacheTTL.
	CacheDuration int `envconfig:"WEATHER_CACHE_DURATION" default:"3600" json:"cacheDuration"`

	ShowIcon     bool `envconfig:"WEATHER_SHOW_ICON" default:"true" json:"showIcon"`
	ShowWind     bool `envconfig:"WEATHER_SHOW_WIND" default:"true" json:"showWind"`
	ShowHumidity bool `envconfig:"WEATHER_SHOW_HUMIDITY" default:"true" json:"showHumidity"`
}

// CacheTTL returns the effective cache duration, never below weather.MinCacheTTL.
func (s Settings) CacheTTL() time.Duration {
	secs := s.CacheDuration
	if secs < 0 {
		secs = -secs
	}
	return weather.ClampTTL(time.Duration(secs) * time.Second)
}

// Unit returns DefaultUnit as a weather.Unit.
func (s Settings) Unit() weather.Unit {
	return weather.Unit(s.DefaultUnit)
}

// UpstreamConfig describes the geocoding and forecast endpoints.
type UpstreamConfig struct {
	GeocodingURL string        `envconfig:"GEOCODING_URL" default:"https://geocoding-api.open-meteo.com/v1/search" validate:"required,url"`
	ForecastURL  string        `envconfig:"FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	Timeout      time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxRetries   int           `envconfig:"UPSTREAM_MAX_RETRIES" default:"0" validate:"gte=0,lte=5"`

	// Geocoder selects the geocoding backend; "google" needs GoogleAPIKey.
	Geocoder     string `envconfig:"GEOCODER_PROVIDER" default:"openmeteo" validate:"oneof=openmeteo google"`
	GoogleAPIKey string `envconfig:"GEOCODER_API_KEY" validate:"required_if=Geocoder google"`
}

// CacheConfig selects and configures the key/value backend.
type CacheConfig struct {
	Backend       string `envconfig:"CACHE_BACKEND" default:"memory" validate:"oneof=memory redis sqlite"`
	MaxEntries    int    `envconfig:"CACHE_MAX_ENTRIES" default:"0" validate:"gte=0"` // memory only; 0 = unlimited
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379" validate:"required_if=Backend redis"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"weather-cache.db" validate:"required_if=Backend sqlite"`
}

// SchedulerConfig controls background jobs.
type SchedulerConfig struct {
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1h" validate:"gt=0"`
	// WarmCities are queried with the default unit every WarmInterval.
	WarmCities   []string      `envconfig:"WEATHER_WARM_CITIES"`
	WarmInterval time.Duration `envconfig:"WARM_INTERVAL" default:"30m" validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file, if any),
// applies defaults and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
