package geocode

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/i474232898/air-quality-insight/internal/metrics"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "air-quality-insight/1.0"
	nominatimLanguages = "id,en"
)

// Nominatim geocodes with the OpenStreetMap Nominatim API.
type Nominatim struct {
	client *resty.Client
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

// NewNominatim creates a client. An empty baseURL or userAgent uses the public defaults.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", nominatimLanguages).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return err != nil
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Printf("DEBUG: nominatim: %s %s -> %d in %s",
			resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.Time())
		return nil
	})

	return &Nominatim{client: client}
}

func (n *Nominatim) Name() string {
	return "nominatim"
}

// SetRetryCount overrides the retry policy; tests use 0.
func (n *Nominatim) SetRetryCount(count int) {
	n.client.SetRetryCount(count)
}

func (n *Nominatim) Geocode(ctx context.Context, text string) (Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Place{}, ErrNotFound
	}

	var results []nominatimPlace
	began := time.Now()
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":              text,
			"format":         "jsonv2",
			"limit":          "1",
			"addressdetails": "1",
		}).
		SetResult(&results).
		Get("/search")
	metrics.ObserveUpstream(n.Name(), began)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim search %q: %w", text, err)
	}
	if !resp.IsSuccess() {
		return Place{}, fmt.Errorf("nominatim search %q: status %d", text, resp.StatusCode())
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, text)
	}

	return results[0].toPlace()
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	var result nominatimPlace
	began := time.Now()
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(lat, 'f', 6, 64),
			"lon":    strconv.FormatFloat(lon, 'f', 6, 64),
			"format": "jsonv2",
			"zoom":   "10",
		}).
		SetResult(&result).
		Get("/reverse")
	metrics.ObserveUpstream(n.Name(), began)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim reverse (%.4f, %.4f): %w", lat, lon, err)
	}
	if !resp.IsSuccess() {
		return Place{}, fmt.Errorf("nominatim reverse: status %d", resp.StatusCode())
	}
	if result.Error != "" || result.DisplayName == "" {
		return Place{}, fmt.Errorf("%w: (%.4f, %.4f)", ErrNotFound, lat, lon)
	}

	return result.toPlace()
}

func (p nominatimPlace) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim longitude %q: %w", p.Lon, err)
	}

	a := p.Address
	locality := a.City
	for _, candidate := range []string{a.Town, a.Village, a.Municipality, a.County, a.State} {
		if locality != "" {
			break
		}
		locality = candidate
	}

	return Place{
		Latitude:  lat,
		Longitude: lon,
		Address:   p.DisplayName,
		Locality:  locality,
	}, nil
}
