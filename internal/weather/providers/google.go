package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-shortcode/internal/common"
	"github.com/i474232898/weather-shortcode/internal/weather"
)

var errNoAPIKey = errors.New("google geocoder api key is not configured")

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
//
// The underlying client has no context support and uses an HTTP client
// without a timeout, so lookups run in a goroutine and Resolve stops waiting
// after timeout. A lookup abandoned this way keeps running in the background
// until the library's request returns.
type GoogleGeocoder struct {
	timeout time.Duration

	// Swappable in tests.
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder sets the package-wide API key of the geocoder client.
// The key is process-global: the last GoogleGeocoder created wins, so only
// one key can be in use per process.
func NewGoogleGeocoder(apiKey string, timeout time.Duration) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &GoogleGeocoder{
		timeout: timeout,
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
	if apiKey == "" {
		g.forward = func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{}, errNoAPIKey
		}
	}
	return g
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, placeName string) (weather.Coordinates, error) {
	const op = "geocode"

	if placeName == "" {
		return weather.Coordinates{}, weather.NewError(weather.InvalidInput, op, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		coords weather.Coordinates
		err    error
	}
	done := make(chan result, 1)

	go func() {
		loc, err := g.forward(geocoder.Address{City: placeName})
		if err != nil {
			done <- result{err: err}
			return
		}
		coords := weather.Coordinates{
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			ResolvedName: placeName,
		}
		// The forward lookup only yields a point; the label is best-effort.
		if addrs, err := g.reverse(loc); err == nil && len(addrs) > 0 {
			if addrs[0].City != "" {
				coords.ResolvedName = addrs[0].City
			}
			coords.Country = addrs[0].Country
		}
		done <- result{coords: coords}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, weather.NewError(weather.Network, op, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return weather.Coordinates{}, weather.NewError(classifyGoogleError(r.err), op, r.err)
		}
		return r.coords, nil
	}
}

func classifyGoogleError(err error) weather.FailureKind {
	msg := strings.ToLower(err.Error())
	if common.HasAny(msg, "no results", "zero_results", "not found") {
		return weather.NotFound
	}
	return weather.Network
}
