package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "celsius", cfg.Settings.DefaultUnit)
	assert.Equal(t, "London", cfg.Settings.DefaultCity)
	assert.Equal(t, "card", cfg.Settings.WidgetStyle)
	assert.True(t, cfg.Settings.ShowIcon)
	assert.True(t, cfg.Settings.ShowWind)
	assert.True(t, cfg.Settings.ShowHumidity)
	assert.Equal(t, time.Hour, cfg.Settings.CacheTTL())
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 0, cfg.Upstream.MaxRetries)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestCacheTTLFloor(t *testing.T) {
	t.Setenv("WEATHER_CACHE_DURATION", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Settings.CacheDuration)
	assert.GreaterOrEqual(t, cfg.Settings.CacheTTL(), 300*time.Second)
	assert.Equal(t, weather.MinCacheTTL, cfg.Settings.CacheTTL())
}

func TestCacheTTLNegativeIsAbsolute(t *testing.T) {
	s := Settings{CacheDuration: -900}
	assert.Equal(t, 900*time.Second, s.CacheTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WEATHER_DEFAULT_UNIT", "fahrenheit")
	t.Setenv("WEATHER_DEFAULT_CITY", "Sofia")
	t.Setenv("WEATHER_WIDGET_STYLE", "minimal")
	t.Setenv("WEATHER_SHOW_WIND", "false")
	t.Setenv("WEATHER_WARM_CITIES", "Paris,Berlin")
	t.Setenv("CACHE_BACKEND", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, weather.UnitFahrenheit, cfg.Settings.Unit())
	assert.Equal(t, "Sofia", cfg.Settings.DefaultCity)
	assert.Equal(t, "minimal", cfg.Settings.WidgetStyle)
	assert.False(t, cfg.Settings.ShowWind)
	assert.Equal(t, []string{"Paris", "Berlin"}, cfg.Scheduler.WarmCities)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"style":    {"WEATHER_WIDGET_STYLE", "fancy"},
		"unit":     {"WEATHER_DEFAULT_UNIT", "kelvin"},
		"backend":  {"CACHE_BACKEND", "memcached"},
		"geocoder": {"GEOCODER_PROVIDER", "google"}, // no API key
		"duration": {"WEATHER_CACHE_DURATION", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
