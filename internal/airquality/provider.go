package airquality

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoData means neither the point nor a nearby station had usable readings.
	ErrNoData = errors.New("no air-quality data for location")
	// ErrProviderUnavailable wraps transport failures that left the result empty.
	ErrProviderUnavailable = errors.New("air-quality provider unavailable")
)

// SeriesProvider abstracts an hourly pollutant source (e.g. Open-Meteo).
type SeriesProvider interface {
	Name() string
	// FetchHourly returns records for the calendar days start..end inclusive.
	// An empty slice with a nil error means the provider had nothing for the point.
	FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]Record, error)
}

// StationLocator finds monitoring stations around a coordinate.
type StationLocator interface {
	Name() string
	NearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]Station, error)
}
