package airquality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/air-quality-insight/internal/cache"
	"github.com/i474232898/air-quality-insight/internal/geo"
	"github.com/i474232898/air-quality-insight/internal/metrics"
)

// DefaultSearchRadiusKm bounds the nearest-station fallback.
const DefaultSearchRadiusKm = 200.0

// FetcherConfig tunes a Fetcher.
type FetcherConfig struct {
	// SearchRadiusKm limits how far a substitute station may be. Zero means the default.
	SearchRadiusKm float64
	// RequestTimeout bounds each upstream call. Zero leaves only the caller's deadline.
	RequestTimeout time.Duration
}

// Fetcher retrieves a pollutant series for a coordinate, falling back to the
// nearest monitoring station and caching successful results.
type Fetcher struct {
	provider SeriesProvider
	stations StationLocator
	cache    *cache.ResponseCache
	cfg      FetcherConfig
}

// NewFetcher creates a Fetcher. stations and responseCache may be nil.
func NewFetcher(provider SeriesProvider, stations StationLocator, responseCache *cache.ResponseCache, cfg FetcherConfig) *Fetcher {
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = DefaultSearchRadiusKm
	}
	return &Fetcher{
		provider: provider,
		stations: stations,
		cache:    responseCache,
		cfg:      cfg,
	}
}

// Fetch returns the series for (lat, lon) over the calendar days start..end.
// When nothing usable is found the error is ErrNoData, or wraps
// ErrProviderUnavailable if an upstream call failed along the way. Both mean "absent".
func (f *Fetcher) Fetch(ctx context.Context, lat, lon float64, start, end time.Time) (*Series, error) {
	key := cache.Fingerprint(lat, lon, start, end)

	if series, ok := f.fromCache(key); ok {
		return series, nil
	}

	var upstreamErr error

	records, err := f.fetchHourly(ctx, lat, lon, start, end)
	if err != nil {
		log.Printf("WARN: fetcher: direct fetch failed for (%.4f, %.4f): %v", lat, lon, err)
		upstreamErr = err
	}

	var series *Series
	if hasUsable(records) {
		series = &Series{
			Source:     Source{Latitude: lat, Longitude: lon},
			Provenance: ProvenanceDirect,
			Provider:   f.provider.Name(),
			Records:    records,
		}
	} else {
		log.Printf("INFO: fetcher: no direct data for (%.4f, %.4f); trying nearest station", lat, lon)
		series, err = f.fromNearestStation(ctx, lat, lon, start, end)
		if err != nil {
			upstreamErr = errors.Join(upstreamErr, err)
		}
	}

	if series == nil {
		metrics.FetchOutcome("absent")
		if upstreamErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, upstreamErr)
		}
		return nil, ErrNoData
	}

	metrics.FetchOutcome(string(series.Provenance))
	f.toCache(key, series)
	return series, nil
}

func (f *Fetcher) fromNearestStation(ctx context.Context, lat, lon float64, start, end time.Time) (*Series, error) {
	if f.stations == nil {
		return nil, nil
	}

	callCtx, cancel := f.callContext(ctx)
	stations, err := f.stations.NearbyStations(callCtx, lat, lon, f.cfg.SearchRadiusKm)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("station lookup: %w", err)
	}
	if len(stations) == 0 {
		log.Printf("INFO: fetcher: no station within %.0f km of (%.4f, %.4f)", f.cfg.SearchRadiusKm, lat, lon)
		return nil, nil
	}

	points := make([]geo.Point, len(stations))
	for i, s := range stations {
		points[i] = geo.Point{Lat: s.Latitude, Lon: s.Longitude}
	}
	idx, km, ok := geo.Nearest(geo.Point{Lat: lat, Lon: lon}, points, f.cfg.SearchRadiusKm)
	if !ok {
		return nil, nil
	}
	nearest := stations[idx]
	log.Printf("INFO: fetcher: using station %q (%.4f, %.4f) %.1f km away",
		nearest.Name, nearest.Latitude, nearest.Longitude, km)

	records, err := f.fetchHourly(ctx, nearest.Latitude, nearest.Longitude, start, end)
	if err != nil {
		return nil, fmt.Errorf("station fetch: %w", err)
	}
	if !hasUsable(records) {
		return nil, nil
	}

	return &Series{
		Source: Source{
			Name:      nearest.Name,
			Latitude:  nearest.Latitude,
			Longitude: nearest.Longitude,
		},
		Provenance: ProvenanceNearestStation,
		DistanceKm: km,
		Provider:   f.provider.Name(),
		Records:    records,
	}, nil
}

func (f *Fetcher) fetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]Record, error) {
	callCtx, cancel := f.callContext(ctx)
	defer cancel()
	return f.provider.FetchHourly(callCtx, lat, lon, start, end)
}

func (f *Fetcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, f.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (f *Fetcher) fromCache(key string) (*Series, bool) {
	if f.cache == nil {
		return nil, false
	}
	payload, ok := f.cache.Get(key)
	if !ok {
		metrics.CacheLookup(false)
		return nil, false
	}

	var series Series
	if err := json.Unmarshal(payload, &series); err != nil {
		log.Printf("WARN: fetcher: discarding unreadable cache entry %s: %v", key, err)
		metrics.CacheLookup(false)
		return nil, false
	}
	metrics.CacheLookup(true)
	return &series, true
}

func (f *Fetcher) toCache(key string, series *Series) {
	if f.cache == nil {
		return
	}
	payload, err := json.Marshal(series)
	if err != nil {
		log.Printf("WARN: fetcher: encoding cache entry %s: %v", key, err)
		return
	}
	if err := f.cache.Put(key, payload); err != nil {
		log.Printf("WARN: fetcher: writing cache entry %s: %v", key, err)
	}
}

func hasUsable(records []Record) bool {
	for _, r := range records {
		if r.Usable() {
			return true
		}
	}
	return false
}
