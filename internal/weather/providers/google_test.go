package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

func newStubGoogle(forward func(geocoder.Address) (geocoder.Location, error), reverse func(geocoder.Location) ([]geocoder.Address, error)) *GoogleGeocoder {
	g := NewGoogleGeocoder("test-key", time.Second)
	g.forward = forward
	g.reverse = reverse
	return g
}

func TestGoogleResolve(t *testing.T) {
	var asked geocoder.Address
	g := newStubGoogle(
		func(a geocoder.Address) (geocoder.Location, error) {
			asked = a
			return geocoder.Location{Latitude: 52.52, Longitude: 13.405}, nil
		},
		func(geocoder.Location) ([]geocoder.Address, error) {
			return []geocoder.Address{{City: "Berlin", Country: "Germany"}}, nil
		},
	)

	coords, err := g.Resolve(context.Background(), "berlin")
	require.NoError(t, err)
	assert.Equal(t, "berlin", asked.City)
	assert.Equal(t, weather.Coordinates{Latitude: 52.52, Longitude: 13.405, ResolvedName: "Berlin", Country: "Germany"}, coords)
}

func TestGoogleResolveWithoutReverseLabel(t *testing.T) {
	g := newStubGoogle(
		func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{Latitude: 1, Longitude: 2}, nil
		},
		func(geocoder.Location) ([]geocoder.Address, error) {
			return nil, errors.New("quota exceeded")
		},
	)

	coords, err := g.Resolve(context.Background(), "Somewhere")
	require.NoError(t, err)
	assert.Equal(t, "Somewhere", coords.ResolvedName)
	assert.Empty(t, coords.Country)
}

func TestGoogleResolveFailures(t *testing.T) {
	noReverse := func(geocoder.Location) ([]geocoder.Address, error) { return nil, nil }

	g := newStubGoogle(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}, noReverse)
	_, err := g.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.NotFound)

	g = newStubGoogle(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("connection reset by peer")
	}, noReverse)
	_, err = g.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.Network)

	_, err = g.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, weather.InvalidInput)
}

func TestGoogleResolveTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := newStubGoogle(func(geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{}, errors.New("cancelled")
	}, func(geocoder.Location) ([]geocoder.Address, error) { return nil, nil })
	g.timeout = 20 * time.Millisecond

	_, err := g.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.Network)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGoogleWithoutAPIKey(t *testing.T) {
	g := NewGoogleGeocoder("", time.Second)

	_, err := g.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.Network)
	assert.ErrorIs(t, err, errNoAPIKey)
}
