package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/airquality/providers"
	"github.com/i474232898/air-quality-insight/internal/cache"
	"github.com/i474232898/air-quality-insight/internal/config"
	"github.com/i474232898/air-quality-insight/internal/geocode"
	"github.com/i474232898/air-quality-insight/internal/intent"
	"github.com/i474232898/air-quality-insight/internal/llm"
	"github.com/i474232898/air-quality-insight/internal/pipeline"
	"github.com/i474232898/air-quality-insight/internal/store"
)

// services is everything a command needs, built from one AppConfig.
type services struct {
	cfg      *config.AppConfig
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

func (s *services) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("WARN: closing %T: %v", c, err)
		}
	}
}

func buildServices(cfg *config.AppConfig) (*services, error) {
	svc := &services{cfg: cfg}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	backend, err := openBackend(cfg, svc)
	if err != nil {
		return nil, err
	}
	responseCache := cache.New(backend, cfg.CacheTTL)

	openMeteo := providers.NewOpenMeteoProvider(httpClient)
	var stations airquality.StationLocator = openMeteo
	switch cfg.StationSource {
	case "openmeteo":
	case "openaq":
		stations = providers.NewOpenAQLocator(httpClient, cfg.OpenAQAPIKey)
	default:
		return nil, fmt.Errorf("unknown STATION_SOURCE %q (valid: openmeteo, openaq)", cfg.StationSource)
	}

	fetcher := airquality.NewFetcher(openMeteo, stations, responseCache, airquality.FetcherConfig{
		SearchRadiusKm: cfg.SearchRadiusKm,
		RequestTimeout: cfg.HTTPTimeout,
	})

	llmClient, err := llm.New(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel, nil)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			return nil, err
		}
		log.Printf("WARN: %v; set LLM_API_KEY to enable question classification", err)
	}

	var geocoder geocode.Geocoder
	switch cfg.Geocoder {
	case "nominatim":
		geocoder = geocode.NewNominatim("", cfg.GeocoderUserAgent, cfg.HTTPTimeout)
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, errors.New("GEOCODER=google requires GOOGLE_GEOCODER_API_KEY")
		}
		geocoder = geocode.NewGoogle(cfg.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("unknown GEOCODER %q (valid: nominatim, google)", cfg.Geocoder)
	}

	resolver := geocode.NewResolver(geocoder, intent.NewDecomposer(llmClient))
	svc.pipeline = pipeline.New(
		intent.NewClassifier(llmClient),
		resolver,
		fetcher,
		geocoder,
		pipeline.Config{Concurrency: cfg.FetchConcurrency},
	)

	log.Printf("INFO: cache=%s (%s, ttl %s) stations=%s geocoder=%s",
		cfg.CacheBackend, cfg.CacheDir, cfg.CacheTTL, stations.Name(), geocoder.Name())
	return svc, nil
}

func openBackend(cfg *config.AppConfig, svc *services) (store.Store, error) {
	switch cfg.CacheBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		db, err := store.OpenSQLite(filepath.Join(cfg.CacheDir, "cache.db"))
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, db)
		return db, nil
	default:
		fs, err := store.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}
