package airquality

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/air-quality-insight/internal/cache"
	"github.com/i474232898/air-quality-insight/internal/store"
)

func f64(v float64) *float64 { return &v }

type pointKey struct{ lat, lon float64 }

type fakeProvider struct {
	mu    sync.Mutex
	data  map[pointKey][]Record
	errs  map[pointKey]error
	calls []pointKey
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := pointKey{lat, lon}
	p.calls = append(p.calls, k)
	if err := p.errs[k]; err != nil {
		return nil, err
	}
	return p.data[k], nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeLocator struct {
	stations []Station
	err      error
	radius   float64
}

func (l *fakeLocator) Name() string { return "fake-stations" }

func (l *fakeLocator) NearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]Station, error) {
	l.radius = radiusKm
	return l.stations, l.err
}

func hourly(start time.Time, pm25 ...float64) []Record {
	out := make([]Record, len(pm25))
	for i, v := range pm25 {
		out[i] = Record{Time: start.Add(time.Duration(i) * time.Hour), PM25: f64(v)}
	}
	return out
}

var (
	day0 = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	day1 = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
)

func TestFetchDirect(t *testing.T) {
	prov := &fakeProvider{data: map[pointKey][]Record{
		{-6.2, 106.8}: hourly(day0, 10, 12),
	}}
	f := NewFetcher(prov, &fakeLocator{}, nil, FetcherConfig{})

	series, err := f.Fetch(context.Background(), -6.2, 106.8, day0, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Provenance != ProvenanceDirect {
		t.Errorf("expected direct provenance, got %s", series.Provenance)
	}
	if series.Source.Latitude != -6.2 || series.Source.Longitude != 106.8 {
		t.Errorf("unexpected source %+v", series.Source)
	}
	if len(series.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(series.Records))
	}
}

func TestFetchFallsBackToNearestStation(t *testing.T) {
	// (0, 0.108) is about 12 km east of the origin.
	near := Station{Name: "Near", Latitude: 0, Longitude: 0.108}
	far := Station{Name: "Far", Latitude: 0, Longitude: 1.0}

	prov := &fakeProvider{data: map[pointKey][]Record{
		{0, 0}:     {{Time: day0}}, // all-null record is not usable
		{0, 0.108}: hourly(day0, 33),
		{0, 1.0}:   hourly(day0, 99),
	}}
	loc := &fakeLocator{stations: []Station{far, near}}
	f := NewFetcher(prov, loc, nil, FetcherConfig{})

	series, err := f.Fetch(context.Background(), 0, 0, day0, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Provenance != ProvenanceNearestStation {
		t.Fatalf("expected nearest_station provenance, got %s", series.Provenance)
	}
	if series.Source.Name != "Near" || series.Source.Longitude != 0.108 {
		t.Errorf("expected source from the nearest station, got %+v", series.Source)
	}
	if series.DistanceKm < 11 || series.DistanceKm > 13 {
		t.Errorf("expected ~12 km, got %f", series.DistanceKm)
	}
	if loc.radius != DefaultSearchRadiusKm {
		t.Errorf("expected default radius %v, got %v", DefaultSearchRadiusKm, loc.radius)
	}
}

func TestFetchIgnoresStationsOutsideRadius(t *testing.T) {
	prov := &fakeProvider{data: map[pointKey][]Record{
		{0, 5}: hourly(day0, 50),
	}}
	loc := &fakeLocator{stations: []Station{{Name: "Too far", Latitude: 0, Longitude: 5}}}
	f := NewFetcher(prov, loc, nil, FetcherConfig{SearchRadiusKm: 100})

	_, err := f.Fetch(context.Background(), 0, 0, day0, day1)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchAbsentWithoutStations(t *testing.T) {
	f := NewFetcher(&fakeProvider{}, &fakeLocator{}, nil, FetcherConfig{})
	series, err := f.Fetch(context.Background(), 1, 1, day0, day1)
	if series != nil {
		t.Fatalf("expected no series, got %+v", series)
	}
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchReportsProviderUnavailable(t *testing.T) {
	prov := &fakeProvider{errs: map[pointKey]error{{1, 1}: fmt.Errorf("dial tcp: timeout")}}
	loc := &fakeLocator{err: fmt.Errorf("dial tcp: timeout")}
	f := NewFetcher(prov, loc, nil, FetcherConfig{})

	_, err := f.Fetch(context.Background(), 1, 1, day0, day1)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestFetchUsesCache(t *testing.T) {
	prov := &fakeProvider{data: map[pointKey][]Record{
		{-7.25, 112.75}: hourly(day0, 20),
	}}
	rc := cache.New(store.NewMemoryStore(), time.Hour)
	f := NewFetcher(prov, nil, rc, FetcherConfig{})

	first, err := f.Fetch(context.Background(), -7.25, 112.75, day0, day1)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.Fetch(context.Background(), -7.25, 112.75, day0, day1)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if got := prov.callCount(); got != 1 {
		t.Errorf("expected one upstream call, got %d", got)
	}
	if second.Provenance != first.Provenance || len(second.Records) != len(first.Records) {
		t.Errorf("cached series differs: %+v vs %+v", second, first)
	}
	if *second.Records[0].PM25 != 20 {
		t.Errorf("expected cached pm2_5 20, got %v", *second.Records[0].PM25)
	}
}

func TestFetchDoesNotCacheAbsent(t *testing.T) {
	backend := store.NewMemoryStore()
	f := NewFetcher(&fakeProvider{}, nil, cache.New(backend, time.Hour), FetcherConfig{})

	if _, err := f.Fetch(context.Background(), 3, 3, day0, day1); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if backend.Len() != 0 {
		t.Errorf("expected nothing cached, got %d entries", backend.Len())
	}
}
