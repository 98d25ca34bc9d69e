package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/metrics"
	"github.com/i474232898/air-quality-insight/internal/resilience"
)

// openAQMaxRadiusMeters is the largest radius the v3 locations endpoint accepts.
const openAQMaxRadiusMeters = 25000

// OpenAQLocator implements airquality.StationLocator using OpenAQ v3 locations.
type OpenAQLocator struct {
	name    string
	apiKey  string
	baseURL string
	limit   int
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenAQLocator(client *http.Client, apiKey string) *OpenAQLocator {
	return &OpenAQLocator{
		name:    "openaq",
		apiKey:  apiKey,
		baseURL: "https://api.openaq.org/v3",
		limit:   100,
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("openaq"),
	}
}

func (l *OpenAQLocator) Name() string {
	return l.name
}

func (l *OpenAQLocator) NearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]airquality.Station, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("openaq api key is not configured")
	}

	radius := int(math.Min(radiusKm*1000, openAQMaxRadiusMeters))

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("coordinates", fmt.Sprintf("%.4f,%.4f", lat, lon))
		values.Set("radius", fmt.Sprintf("%d", radius))
		values.Set("limit", fmt.Sprintf("%d", l.limit))

		u := fmt.Sprintf("%s/locations?%s", l.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-Key", l.apiKey)
		return req, nil
	}

	began := time.Now()
	resp, err := resilience.Do(ctx, l.httpCfg, l.circuit, buildRequest)
	metrics.ObserveUpstream(l.name, began)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Locality    string `json:"locality"`
			Coordinates *struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"coordinates"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding openaq locations: %w", err)
	}

	stations := make([]airquality.Station, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Coordinates == nil {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.Locality
		}
		if name == "" {
			name = fmt.Sprintf("OpenAQ %d", r.ID)
		}
		stations = append(stations, airquality.Station{
			Name:      name,
			Latitude:  r.Coordinates.Latitude,
			Longitude: r.Coordinates.Longitude,
		})
	}
	return stations, nil
}
