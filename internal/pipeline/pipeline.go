package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/common"
	"github.com/i474232898/air-quality-insight/internal/geocode"
	"github.com/i474232898/air-quality-insight/internal/intent"
	"github.com/i474232898/air-quality-insight/internal/metrics"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusOK          Status = "ok"
	StatusPartial     Status = "partial"
	StatusNoArea      Status = "no_area"
	StatusNotFound    Status = "not_found"
	StatusUnavailable Status = "unavailable"
)

// DefaultConcurrency bounds parallel per-location fetches.
const DefaultConcurrency = 4

// UnknownLocation names a point that could not be reverse geocoded.
const UnknownLocation = "Unknown"

type Classifier interface {
	Classify(ctx context.Context, query string, ref time.Time) intent.LocationIntent
}

type Resolver interface {
	Resolve(ctx context.Context, query, areaName string, li intent.LocationIntent) []geocode.ResolvedLocation
}

type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64, start, end time.Time) (*airquality.Series, error)
}

type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (geocode.Place, error)
}

// Request is one natural-language question.
type Request struct {
	Query string
	// ReferenceDate anchors relative dates. Zero means now.
	ReferenceDate time.Time
}

// LocationResult pairs a resolved location with its series, if any.
type LocationResult struct {
	Location geocode.ResolvedLocation `json:"location"`
	Series   *airquality.Series       `json:"series,omitempty"`
	Error    string                   `json:"error,omitempty"`

	err error
}

// Result is everything a caller needs to present one run.
type Result struct {
	RequestID string                     `json:"request_id"`
	Status    Status                     `json:"status"`
	Message   string                     `json:"message,omitempty"`
	Intent    intent.LocationIntent      `json:"intent"`
	AreaTerm  string                     `json:"area_term,omitempty"`
	Locations []LocationResult           `json:"locations"`
	Summaries []airquality.SummaryRecord `json:"summaries"`
	Daily     []airquality.PeriodMean    `json:"daily,omitempty"`
	Focus     *geocode.ResolvedLocation  `json:"focus,omitempty"`
}

// Config tunes a Pipeline.
type Config struct {
	Concurrency int
}

// Pipeline runs classify, resolve, fetch and aggregate for one request at a time.
// It holds no per-request state, so one Pipeline serves concurrent requests.
type Pipeline struct {
	classifier Classifier
	resolver   Resolver
	fetcher    Fetcher
	reverser   Reverser
	cfg        Config
}

// New creates a Pipeline. reverser may be nil, in which case points are named UnknownLocation.
func New(classifier Classifier, resolver Resolver, fetcher Fetcher, reverser Reverser, cfg Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Pipeline{
		classifier: classifier,
		resolver:   resolver,
		fetcher:    fetcher,
		reverser:   reverser,
		cfg:        cfg,
	}
}

// Run answers a natural-language request. It never fails; problems are
// reported through Result.Status and Result.Message.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	ref := req.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}

	res := Result{
		RequestID: uuid.NewString(),
		Locations: []LocationResult{},
		Summaries: []airquality.SummaryRecord{},
	}
	defer func() { metrics.PipelineRun(string(res.Status)) }()

	res.Intent = p.classifier.Classify(ctx, req.Query, ref)
	log.Printf("INFO: pipeline[%s]: intent=%s areas=%v range=%s..%s", res.RequestID, res.Intent.Intent,
		res.Intent.Areas, res.Intent.DateRange.Start.Format("2006-01-02"), res.Intent.DateRange.End.Format("2006-01-02"))

	if res.Intent.Intent == intent.None {
		res.Status = StatusNoArea
		res.Message = "No location was recognised in the question."
		return res
	}

	res.AreaTerm = res.Intent.AreaTerm(req.Query)
	locations := p.resolver.Resolve(ctx, req.Query, res.AreaTerm, res.Intent)
	if len(locations) == 0 {
		res.Status = StatusNotFound
		res.Message = fmt.Sprintf("Could not find coordinates for %q.", res.AreaTerm)
		log.Printf("INFO: pipeline[%s]: %s", res.RequestID, res.Message)
		return res
	}
	res.Focus = &locations[0]

	res.Locations = p.fetchAll(ctx, res.RequestID, locations, res.Intent.DateRange.Start, res.Intent.DateRange.End)
	p.finish(&res)
	return res
}

// Point fetches a single coordinate and names it by reverse geocoding.
func (p *Pipeline) Point(ctx context.Context, lat, lon float64, start, end time.Time) Result {
	start, end = window(start, end)
	res := Result{
		RequestID: uuid.NewString(),
		Intent: intent.LocationIntent{
			Intent:    intent.Single,
			Areas:     []string{},
			DateRange: intent.DateRange{Start: start, End: end},
		},
		Summaries: []airquality.SummaryRecord{},
	}
	defer func() { metrics.PipelineRun(string(res.Status)) }()

	loc := geocode.ResolvedLocation{
		DisplayName: p.pointName(ctx, lat, lon),
		Latitude:    lat,
		Longitude:   lon,
	}
	res.Focus = &loc
	res.Locations = p.fetchAll(ctx, res.RequestID, []geocode.ResolvedLocation{loc}, start, end)
	p.finish(&res)
	return res
}

// Periods fetches one coordinate and returns its daily or weekly means.
// The error is airquality.ErrNoData or wraps airquality.ErrProviderUnavailable.
func (p *Pipeline) Periods(ctx context.Context, lat, lon float64, start, end time.Time, g airquality.Granularity) ([]airquality.PeriodMean, error) {
	start, end = window(start, end)
	series, err := p.fetcher.Fetch(ctx, lat, lon, start, end)
	if err != nil {
		return nil, err
	}
	return airquality.Resample(series, g), nil
}

// WarmUp resolves area as a sub-area breakdown over the last days days and
// fetches every location so later requests hit the cache. It returns how many
// locations now have data.
func (p *Pipeline) WarmUp(ctx context.Context, area string, days int) (int, error) {
	area = strings.TrimSpace(area)
	if area == "" {
		return 0, errors.New("warm-up area is empty")
	}
	if days <= 0 {
		days = 1
	}
	end := today()
	start := end.AddDate(0, 0, -(days - 1))

	li := intent.LocationIntent{
		Intent:     intent.SubAreas,
		Areas:      []string{area},
		ParentArea: &area,
		DateRange:  intent.DateRange{Start: start, End: end},
	}
	locations := p.resolver.Resolve(ctx, area, area, li)
	if len(locations) == 0 {
		return 0, fmt.Errorf("warm-up %q: %w", area, geocode.ErrNotFound)
	}

	warmed := 0
	for _, r := range p.fetchAll(ctx, "warmup", locations, start, end) {
		if r.Series != nil {
			warmed++
		}
	}
	return warmed, nil
}

// fetchAll fans out one fetch per location, bounded by cfg.Concurrency, and
// returns the results in input order.
func (p *Pipeline) fetchAll(ctx context.Context, requestID string, locations []geocode.ResolvedLocation, start, end time.Time) []LocationResult {
	out := make([]LocationResult, len(locations))
	sem := make(chan struct{}, p.cfg.Concurrency)

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc geocode.ResolvedLocation) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i] = LocationResult{Location: loc, Error: ctx.Err().Error(), err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			series, err := p.fetcher.Fetch(ctx, loc.Latitude, loc.Longitude, start, end)
			if err != nil {
				log.Printf("INFO: pipeline[%s]: no data for %s: %v", requestID, loc.DisplayName, err)
				out[i] = LocationResult{Location: loc, Error: err.Error(), err: err}
				return
			}
			series.LocationName = loc.DisplayName
			out[i] = LocationResult{Location: loc, Series: series}
		}(i, loc)
	}
	wg.Wait()

	return out
}

// finish fills summaries, the daily view, status and message from res.Locations.
func (p *Pipeline) finish(res *Result) {
	series := make([]*airquality.Series, len(res.Locations))
	var missing []string
	connectivity := false
	for i, r := range res.Locations {
		series[i] = r.Series
		if r.Series == nil {
			missing = append(missing, r.Location.DisplayName)
			if errors.Is(r.err, airquality.ErrProviderUnavailable) {
				connectivity = true
			}
		}
	}

	res.Summaries = airquality.SummarizeMany(series)

	switch {
	case len(res.Summaries) == 0:
		res.Status = StatusUnavailable
		res.Message = unavailableMessage(missing, connectivity)
	case len(missing) > 0:
		res.Status = StatusPartial
		res.Message = fmt.Sprintf("No air-quality data for %s.", strings.Join(missing, ", "))
	default:
		res.Status = StatusOK
	}

	if len(res.Summaries) == 1 {
		for _, s := range series {
			if s != nil {
				res.Daily = airquality.Resample(s, airquality.Daily)
				break
			}
		}
	}

	log.Printf("INFO: pipeline[%s]: status=%s locations=%d summaries=%d",
		res.RequestID, res.Status, len(res.Locations), len(res.Summaries))
}

func unavailableMessage(names []string, connectivity bool) string {
	where := strings.Join(names, ", ")
	if connectivity {
		return fmt.Sprintf("Air-quality data for %s is unavailable: the data provider could not be reached. Check the connection and try again.", where)
	}
	return fmt.Sprintf("Air-quality data for %s is unavailable: no nearby monitoring station reported readings for the requested dates.", where)
}

func (p *Pipeline) pointName(ctx context.Context, lat, lon float64) string {
	if p.reverser == nil {
		return UnknownLocation
	}
	place, err := p.reverser.Reverse(ctx, lat, lon)
	if err != nil {
		log.Printf("INFO: pipeline: reverse geocode (%.4f, %.4f) failed: %v", lat, lon, err)
		return UnknownLocation
	}
	if place.Locality != "" {
		return place.Locality
	}
	if name := common.FirstSegment(place.Address); name != "" {
		return name
	}
	return UnknownLocation
}

// window defaults a zero range to today and orders the bounds.
func window(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() && end.IsZero() {
		t := today()
		return t, t
	}
	if start.IsZero() {
		start = end
	}
	if end.IsZero() {
		end = start
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
