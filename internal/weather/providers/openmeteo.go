package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

const (
	OpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	OpenMeteoForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// OpenMeteoGeocoder implements weather.Geocoder against the Open-Meteo
// geocoding API.
type OpenMeteoGeocoder struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(baseURL string, httpCfg HTTPClientConfig) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = OpenMeteoGeocodingURL
	}
	return &OpenMeteoGeocoder{
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newBreaker("openmeteo-geocoding"),
	}
}

func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, placeName string) (weather.Coordinates, error) {
	const op = "geocode"

	if placeName == "" {
		return weather.Coordinates{}, weather.NewError(weather.InvalidInput, op, nil)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", placeName)
		values.Set("count", "1")
		values.Set("format", "json")

		return http.NewRequest(http.MethodGet, g.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Coordinates{}, weather.NewError(weather.Network, op, err)
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := decodeJSON(op, resp, &payload); err != nil {
		return weather.Coordinates{}, err
	}

	if len(payload.Results) == 0 {
		return weather.Coordinates{}, weather.NewError(weather.NotFound, op, nil)
	}

	r := payload.Results[0]
	return weather.Coordinates{
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		ResolvedName: r.Name,
		Country:      r.Country,
	}, nil
}

// OpenMeteoForecaster implements weather.Forecaster against the Open-Meteo
// forecast API's current_weather block.
type OpenMeteoForecaster struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoForecaster(baseURL string, httpCfg HTTPClientConfig) *OpenMeteoForecaster {
	if baseURL == "" {
		baseURL = OpenMeteoForecastURL
	}
	return &OpenMeteoForecaster{
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newBreaker("openmeteo-forecast"),
	}
}

func (f *OpenMeteoForecaster) Fetch(ctx context.Context, coords weather.Coordinates, unit weather.Unit) (weather.CurrentConditions, error) {
	const op = "forecast"

	// Anything other than celsius is requested as fahrenheit.
	tempUnit := string(weather.UnitFahrenheit)
	if unit == weather.UnitCelsius {
		tempUnit = string(weather.UnitCelsius)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
		values.Set("current_weather", "true")
		values.Set("temperature_unit", tempUnit)

		return http.NewRequest(http.MethodGet, f.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, f.httpCfg, f.circuit, buildRequest)
	if err != nil {
		return weather.CurrentConditions{}, weather.NewError(weather.Network, op, err)
	}

	var payload struct {
		CurrentWeather *struct {
			Temperature   *float64 `json:"temperature"`
			WindSpeed     *float64 `json:"windspeed"`
			WindDirection *float64 `json:"winddirection"`
			WeatherCode   *int     `json:"weathercode"`
			Time          *string  `json:"time"`
		} `json:"current_weather"`
	}
	if err := decodeJSON(op, resp, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	cw := payload.CurrentWeather
	if cw == nil {
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("current_weather"))
	}

	// Every field is required; a zero value would be indistinguishable from a reading.
	switch {
	case cw.Temperature == nil:
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("temperature"))
	case cw.WindSpeed == nil:
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("windspeed"))
	case cw.WindDirection == nil:
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("winddirection"))
	case cw.WeatherCode == nil:
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("weathercode"))
	case cw.Time == nil:
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, errMissingField("time"))
	}

	observedAt, ok := parseObservationTime(*cw.Time)
	if !ok {
		return weather.CurrentConditions{}, weather.NewError(weather.MalformedResponse, op, fmt.Errorf("unparseable time %q", *cw.Time))
	}

	return weather.CurrentConditions{
		Temperature:      *cw.Temperature,
		WindSpeedKph:     *cw.WindSpeed,
		WindDirectionDeg: normalizeBearing(*cw.WindDirection),
		WeatherCode:      *cw.WeatherCode,
		ObservedAt:       observedAt,
	}, nil
}

type errMissingField string

func (e errMissingField) Error() string { return "missing field " + string(e) }

// parseObservationTime accepts Open-Meteo's minute-precision ISO8601 form
// (GMT unless a timezone was requested) as well as full RFC3339.
func parseObservationTime(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeBearing(deg float64) int {
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	return d
}
