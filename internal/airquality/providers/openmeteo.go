package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/metrics"
	"github.com/i474232898/air-quality-insight/internal/resilience"
)

const openMeteoHourly = "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone"

// OpenMeteoProvider implements airquality.SeriesProvider and airquality.StationLocator
// against the Open-Meteo air-quality API. No API key is required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://air-quality-api.open-meteo.com/v1",
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoHourlyPayload struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Hourly           *struct {
		Time            []string   `json:"time"`
		PM10            []*float64 `json:"pm10"`
		PM25            []*float64 `json:"pm2_5"`
		CarbonMonoxide  []*float64 `json:"carbon_monoxide"`
		NitrogenDioxide []*float64 `json:"nitrogen_dioxide"`
		SulphurDioxide  []*float64 `json:"sulphur_dioxide"`
		Ozone           []*float64 `json:"ozone"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]airquality.Record, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
		values.Set("hourly", openMeteoHourly)
		values.Set("timezone", "auto")
		if !start.IsZero() && !end.IsZero() {
			values.Set("start_date", start.Format("2006-01-02"))
			values.Set("end_date", end.Format("2006-01-02"))
		}

		u := fmt.Sprintf("%s/air-quality?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	began := time.Now()
	resp, err := resilience.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	metrics.ObserveUpstream(p.name, began)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openMeteoHourlyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding openmeteo response: %w", err)
	}

	return parseOpenMeteoHourly(payload)
}

func parseOpenMeteoHourly(payload openMeteoHourlyPayload) ([]airquality.Record, error) {
	if payload.Hourly == nil {
		return nil, nil
	}

	h := payload.Hourly
	loc := time.FixedZone("", payload.UTCOffsetSeconds)
	at := func(values []*float64, i int) *float64 {
		if i < len(values) {
			return values[i]
		}
		return nil
	}

	records := make([]airquality.Record, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation("2006-01-02T15:04", raw, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing openmeteo time %q: %w", raw, err)
		}
		records = append(records, airquality.Record{
			Time:            ts,
			PM10:            at(h.PM10, i),
			PM25:            at(h.PM25, i),
			CarbonMonoxide:  at(h.CarbonMonoxide, i),
			NitrogenDioxide: at(h.NitrogenDioxide, i),
			SulphurDioxide:  at(h.SulphurDioxide, i),
			Ozone:           at(h.Ozone, i),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
	return records, nil
}

func (p *OpenMeteoProvider) NearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]airquality.Station, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
		values.Set("radius", strconv.FormatFloat(radiusKm, 'f', 0, 64))

		u := fmt.Sprintf("%s/locations?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	began := time.Now()
	resp, err := resilience.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	metrics.ObserveUpstream(p.name+"-locations", began)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding openmeteo locations: %w", err)
	}

	stations := make([]airquality.Station, 0, len(payload.Results))
	for _, r := range payload.Results {
		name := r.Name
		if name == "" {
			name = "Unknown Station"
		}
		stations = append(stations, airquality.Station{
			Name:      name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return stations, nil
}
