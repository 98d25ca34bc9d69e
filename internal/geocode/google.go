package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/air-quality-insight/internal/metrics"
)

// Google geocodes with the Google Maps Geocoding API.
// The underlying library keeps its key in a package variable, so only one key
// is active per process.
type Google struct{}

func NewGoogle(apiKey string) *Google {
	geocoder.ApiKey = apiKey
	return &Google{}
}

func (g *Google) Name() string {
	return "google"
}

type googleResult struct {
	place Place
	err   error
}

func (g *Google) Geocode(ctx context.Context, text string) (Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Place{}, ErrNotFound
	}

	return g.run(ctx, func() (Place, error) {
		loc, err := geocoder.Geocoding(geocoder.Address{Street: text})
		if err != nil {
			return Place{}, fmt.Errorf("google geocoding %q: %w", text, err)
		}
		if loc.Latitude == 0 && loc.Longitude == 0 {
			return Place{}, fmt.Errorf("%w: %q", ErrNotFound, text)
		}

		place := Place{Latitude: loc.Latitude, Longitude: loc.Longitude, Address: text}
		if addresses, err := geocoder.GeocodingReverse(loc); err == nil && len(addresses) > 0 {
			place.Address = addresses[0].FormattedAddress
			place.Locality = addresses[0].City
		}
		return place, nil
	})
}

func (g *Google) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	return g.run(ctx, func() (Place, error) {
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
		if err != nil {
			return Place{}, fmt.Errorf("google reverse geocoding: %w", err)
		}
		if len(addresses) == 0 {
			return Place{}, fmt.Errorf("%w: (%.4f, %.4f)", ErrNotFound, lat, lon)
		}
		return Place{
			Latitude:  lat,
			Longitude: lon,
			Address:   addresses[0].FormattedAddress,
			Locality:  addresses[0].City,
		}, nil
	})
}

// run executes a blocking library call but returns as soon as ctx is done.
func (g *Google) run(ctx context.Context, call func() (Place, error)) (Place, error) {
	if err := ctx.Err(); err != nil {
		return Place{}, err
	}

	began := time.Now()
	done := make(chan googleResult, 1)
	go func() {
		p, err := call()
		done <- googleResult{place: p, err: err}
	}()

	select {
	case <-ctx.Done():
		return Place{}, ctx.Err()
	case r := <-done:
		metrics.ObserveUpstream(g.Name(), began)
		return r.place, r.err
	}
}
