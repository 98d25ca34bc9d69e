package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/pipeline"
)

type fakeService struct {
	gotQuery   pipeline.Request
	gotLat     float64
	gotStart   time.Time
	gotGran    airquality.Granularity
	periodsErr error
}

func (f *fakeService) Run(ctx context.Context, req pipeline.Request) pipeline.Result {
	f.gotQuery = req
	return pipeline.Result{RequestID: "r1", Status: pipeline.StatusOK}
}

func (f *fakeService) Point(ctx context.Context, lat, lon float64, start, end time.Time) pipeline.Result {
	f.gotLat = lat
	f.gotStart = start
	return pipeline.Result{RequestID: "r2", Status: pipeline.StatusUnavailable}
}

func (f *fakeService) Periods(ctx context.Context, lat, lon float64, start, end time.Time, g airquality.Granularity) ([]airquality.PeriodMean, error) {
	f.gotGran = g
	if f.periodsErr != nil {
		return nil, f.periodsErr
	}
	v := 12.5
	return []airquality.PeriodMean{{Period: start, Samples: 24, PM25: &v}}, nil
}

func newTestApp(svc *fakeService) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, svc)
	return app
}

func TestQueryValidation(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc)

	for _, body := range []string{
		`{}`,
		`{"query": ""}`,
		`{"query": "udara Bandung", "reference_date": "18-10-2026"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected status %d, got %d", body, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestQueryRunsPipeline(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query",
		strings.NewReader(`{"query": "udara Bandung kemarin", "reference_date": "2026-10-18"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.RequestID != "r1" || result.Status != pipeline.StatusOK {
		t.Errorf("unexpected result %+v", result)
	}
	if svc.gotQuery.Query != "udara Bandung kemarin" || svc.gotQuery.ReferenceDate.Format(dateLayout) != "2026-10-18" {
		t.Errorf("unexpected pipeline request %+v", svc.gotQuery)
	}
}

// TestAirQualityCoordinateValidation verifies the lat/lon bounds on the point endpoint.
func TestAirQualityCoordinateValidation(t *testing.T) {
	app := newTestApp(&fakeService{})

	for _, qs := range []string{
		"",
		"lat=-6.9",
		"lat=91&lon=107",
		"lat=-6.9&lon=181",
		"lat=abc&lon=107",
		"lat=-6.9&lon=107&start=yesterday",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/airquality?"+qs, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%q: expected status %d, got %d", qs, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestAirQualityPoint(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/airquality?lat=-6.9&lon=107.6&start=2026-10-11&end=2026-10-18", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if svc.gotLat != -6.9 || svc.gotStart.Format(dateLayout) != "2026-10-11" {
		t.Errorf("unexpected point call lat=%v start=%v", svc.gotLat, svc.gotStart)
	}
}

func TestPeriods(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		gran   airquality.Granularity
	}{
		{"default daily", "lat=-6.9&lon=107.6", nil, http.StatusOK, airquality.Daily},
		{"weekly", "lat=-6.9&lon=107.6&granularity=week", nil, http.StatusOK, airquality.Weekly},
		{"bad granularity", "lat=-6.9&lon=107.6&granularity=month", nil, http.StatusBadRequest, ""},
		{"no data", "lat=-6.9&lon=107.6", airquality.ErrNoData, http.StatusNotFound, airquality.Daily},
		{"provider down", "lat=-6.9&lon=107.6", fmt.Errorf("%w: timeout", airquality.ErrProviderUnavailable), http.StatusServiceUnavailable, airquality.Daily},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{periodsErr: tt.err}
			app := newTestApp(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/airquality/periods?"+tt.query, nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if svc.gotGran != tt.gran {
				t.Errorf("expected granularity %q, got %q", tt.gran, svc.gotGran)
			}
		})
	}
}
