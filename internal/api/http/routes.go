package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-insight/internal/airquality"
	"github.com/i474232898/air-quality-insight/internal/pipeline"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// Service is the part of the pipeline the HTTP layer needs.
type Service interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
	Point(ctx context.Context, lat, lon float64, start, end time.Time) pipeline.Result
	Periods(ctx context.Context, lat, lon float64, start, end time.Time, g airquality.Granularity) ([]airquality.PeriodMean, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/query", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ref := time.Now()
		if req.ReferenceDate != "" {
			ref, _ = time.Parse(dateLayout, req.ReferenceDate)
		}

		result := service.Run(c.UserContext(), pipeline.Request{Query: req.Query, ReferenceDate: ref})
		return c.JSON(result)
	})

	v1.Get("/airquality", func(c *fiber.Ctx) error {
		var q pointQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		start, end := q.window()
		result := service.Point(c.UserContext(), *q.Lat, *q.Lon, start, end)
		return c.JSON(result)
	})

	v1.Get("/airquality/periods", func(c *fiber.Ctx) error {
		var q periodsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		start, end := q.Point.window()
		rows, err := service.Periods(c.UserContext(), *q.Point.Lat, *q.Point.Lon, start, end, q.Granularity)
		if err != nil {
			if errors.Is(err, airquality.ErrProviderUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "air-quality provider unavailable")
			}
			if errors.Is(err, airquality.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, "no air-quality data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch air-quality data")
		}

		return c.JSON(fiber.Map{
			"latitude":    *q.Point.Lat,
			"longitude":   *q.Point.Lon,
			"start":       start.Format(dateLayout),
			"end":         end.Format(dateLayout),
			"granularity": q.Granularity,
			"periods":     rows,
		})
	})
}

// queryRequest is the body of POST /api/v1/query.
type queryRequest struct {
	Query         string `json:"query" validate:"required,max=500"`
	ReferenceDate string `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
}

// pointQuery holds query parameters identifying a coordinate and date window.
type pointQuery struct {
	Lat   *float64 `validate:"required,gte=-90,lte=90"`
	Lon   *float64 `validate:"required,gte=-180,lte=180"`
	Start string   `validate:"omitempty,datetime=2006-01-02"`
	End   string   `validate:"omitempty,datetime=2006-01-02"`
}

func (q *pointQuery) bind(c *fiber.Ctx) error {
	var err error
	if q.Lat, err = parseCoordinate(c.Query("lat")); err != nil {
		return errors.New("lat must be a number")
	}
	if q.Lon, err = parseCoordinate(c.Query("lon")); err != nil {
		return errors.New("lon must be a number")
	}
	q.Start = c.Query("start")
	q.End = c.Query("end")

	return validate.Struct(q)
}

// window returns the requested dates; zero values let the pipeline default to today.
func (q pointQuery) window() (time.Time, time.Time) {
	var start, end time.Time
	if q.Start != "" {
		start, _ = time.Parse(dateLayout, q.Start)
	}
	if q.End != "" {
		end, _ = time.Parse(dateLayout, q.End)
	}
	return start, end
}

// periodsQuery holds query parameters for the periods endpoint.
type periodsQuery struct {
	Point       pointQuery
	Granularity airquality.Granularity `validate:"oneof=day week"`
}

func (p *periodsQuery) bind(c *fiber.Ctx) error {
	p.Granularity = airquality.Granularity(c.Query("granularity", string(airquality.Daily)))
	if err := p.Point.bind(c); err != nil {
		return err
	}
	return validate.Struct(p)
}

func parseCoordinate(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
