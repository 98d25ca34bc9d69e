package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const appName = "air-quality-insight"

type AppConfig struct {
	Port string

	// Cache.
	CacheBackend string // file, sqlite or memory
	CacheDir     string
	CacheTTL     time.Duration

	// Fetching.
	SearchRadiusKm   float64
	HTTPTimeout      time.Duration
	FetchConcurrency int
	StationSource    string // openmeteo or openaq
	OpenAQAPIKey     string

	// Classification capability.
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string

	// Geocoding.
	Geocoder          string // nominatim or google
	GeocoderUserAgent string
	GoogleAPIKey      string

	// Cache warm-up.
	WarmupAreas    []string
	WarmupInterval time.Duration
	WarmupDays     int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.CacheBackend = strings.ToLower(getenvDefault("CACHE_BACKEND", "file"))
	switch cfg.CacheBackend {
	case "file", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: use file, sqlite or memory", cfg.CacheBackend)
	}
	cfg.CacheDir = getenvDefault("CACHE_DIR", filepath.Join(xdg.CacheHome, appName))

	ttlHours, err := getenvFloat("CACHE_TTL_HOURS", 6)
	if err != nil {
		return nil, err
	}
	if ttlHours <= 0 {
		return nil, fmt.Errorf("invalid CACHE_TTL_HOURS: must be positive")
	}
	cfg.CacheTTL = time.Duration(ttlHours * float64(time.Hour))

	if cfg.SearchRadiusKm, err = getenvFloat("SEARCH_RADIUS_KM", 200); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchConcurrency, err = getenvInt("FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	cfg.StationSource = strings.ToLower(getenvDefault("STATION_SOURCE", "openmeteo"))
	cfg.OpenAQAPIKey = os.Getenv("OPENAQ_API_KEY")

	cfg.LLMProvider = strings.ToLower(getenvDefault("LLM_PROVIDER", "gemini"))
	cfg.LLMAPIKey = getenvDefault("LLM_API_KEY", os.Getenv("GEMINI_API_KEY"))
	cfg.LLMModel = os.Getenv("LLM_MODEL")

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", "nominatim"))
	cfg.GeocoderUserAgent = getenvDefault("GEOCODER_USER_AGENT", appName+"/1.0")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.WarmupAreas = splitList(os.Getenv("WARMUP_AREAS"))
	if cfg.WarmupInterval, err = getenvDuration("WARMUP_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.WarmupDays, err = getenvInt("WARMUP_DAYS", 7); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
