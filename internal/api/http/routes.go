package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/surf-forecast-aggregation/internal/store"
	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *surf.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/spots", func(c *fiber.Ctx) error {
		spots, err := service.Spots(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list spots")
		}
		return c.JSON(spots)
	})

	v1.Get("/spots/:id/forecasts/:provider/chart", func(c *fiber.Ctx) error {
		var q forecastPath
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.Chart(c.UserContext(), q.Provider, q.SpotID)
		if err != nil {
			return mapError(err, "failed to build chart")
		}
		return c.JSON(fiber.Map{
			"spotId":   q.SpotID,
			"provider": q.Provider,
			"points":   points,
		})
	})

	v1.Get("/spots/:id/forecasts/:provider", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Records(c.UserContext(), q.Path.Provider, q.Path.SpotID, q.From, q.To)
		if err != nil {
			return mapError(err, "failed to fetch forecasts")
		}

		out := make([]recordView, 0, len(records))
		for _, r := range records {
			out = append(out, newRecordView(r))
		}
		return c.JSON(fiber.Map{
			"spotId":    q.Path.SpotID,
			"provider":  q.Path.Provider,
			"forecasts": out,
		})
	})

	v1.Get("/spots/:id/requests", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid spot id")
		}
		reqs, err := service.Requests(c.UserContext(), id)
		if err != nil {
			return mapError(err, "failed to fetch request log")
		}
		return c.JSON(fiber.Map{
			"spotId":   id,
			"requests": reqs,
		})
	})

	v1.Post("/spots/:id/ingest", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid spot id")
		}
		spot, err := service.Spot(c.UserContext(), id)
		if err != nil {
			return mapError(err, "failed to load spot")
		}

		results, err := service.FetchAndStore(c.UserContext(), spot)
		if err != nil && len(results) == 0 {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{
			"spotId":  spot.ID,
			"results": results,
		})
	})
}

func mapError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, surf.ErrUnknownProvider):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}

// forecastPath holds the path parameters identifying a spot's provider series.
type forecastPath struct {
	SpotID   int64  `validate:"required,gt=0"`
	Provider string `validate:"required,oneof=msw spitcast surfline"`
}

func (p *forecastPath) bind(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errors.New("invalid spot id")
	}
	p.SpotID = id
	p.Provider = c.Params("provider")
	return validate.Struct(p)
}

// rangeQuery holds query parameters for the records endpoint.
type rangeQuery struct {
	Path forecastPath
	From time.Time
	To   time.Time `validate:"omitempty,gtefield=From"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	if err := q.Path.bind(c); err != nil {
		return err
	}

	if s := c.Query("from"); s != "" {
		from, err := parseTime(s)
		if err != nil {
			return err
		}
		q.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseTime(s)
		if err != nil {
			return err
		}
		q.To = to
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// recordView adds the derived fields to a stored record.
type recordView struct {
	surf.ForecastRecord
	AvgHeight          *float64 `json:"avgHeight,omitempty"`
	DisplaySwellRating *int     `json:"displaySwellRating,omitempty"`
}

func newRecordView(r surf.ForecastRecord) recordView {
	v := recordView{ForecastRecord: r}
	if avg, ok := r.AvgHeight(); ok {
		v.AvgHeight = &avg
	}
	if rating, ok := r.DisplaySwellRating(); ok {
		v.DisplaySwellRating = &rating
	}
	return v
}
