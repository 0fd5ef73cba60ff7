package httpapi

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-view/internal/store"
	"github.com/i474232898/weather-view/internal/weather"
)

// Messages returned to clients. Internal detail is only logged.
const (
	msgCityRequired   = "City parameter is required"
	msgNotConfigured  = "OpenWeather API key is not configured"
	msgCityNotFound   = "City not found in our cosmic database"
	msgUpstreamFailed = "Failed to fetch weather data from the cosmos"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": "<message>"}. Anything that is
// not a *fiber.Error is logged and answered with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if !errors.As(err, &e) {
		log.Printf("ERROR: unhandled error (request %v): %v", c.Locals("requestid"), err)
		e = fiber.NewError(fiber.StatusInternalServerError, msgUpstreamFailed)
	}
	return c.Status(e.Code).JSON(fiber.Map{
		"error": e.Message,
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// probeCities are reported by the health endpoint.
func RegisterRoutes(app *fiber.App, service *weather.Service, probeCities []string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		upstream := make([]weather.ProbeResult, 0, len(probeCities))
		for _, city := range probeCities {
			if probe, err := service.LatestProbe(city); err == nil {
				upstream = append(upstream, probe)
			}
		}

		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-view",
			"upstream": upstream,
		})
	})

	app.Get("/api/weather", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, msgCityRequired)
		}

		view, err := service.GetView(c.UserContext(), q.City)
		if err != nil {
			return viewError(c, err)
		}

		return c.JSON(view)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/probes", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		probes, err := service.ProbeRange(req.City.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no probe results for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch probe history")
		}

		return c.JSON(fiber.Map{
			"city":   req.City.City,
			"from":   req.From,
			"to":     req.To,
			"probes": probes,
		})
	})
}

// viewError maps a lookup failure to its HTTP response and logs the detail.
func viewError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, weather.ErrMissingParameter):
		return fiber.NewError(fiber.StatusBadRequest, msgCityRequired)
	case errors.Is(err, weather.ErrMissingConfiguration):
		log.Printf("ERROR: weather lookup: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, msgNotConfigured)
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, msgCityNotFound)
	default:
		log.Printf("ERROR: weather lookup (request %v): %v", c.Locals("requestid"), err)
		return fiber.NewError(fiber.StatusInternalServerError, msgUpstreamFailed)
	}
}

// cityQuery holds the query parameter identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	var q cityQuery

	q.City = c.Query("city")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the probe history endpoint.
type historyQuery struct {
	City cityQuery
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	city, err := parseCityQuery(c)
	if err != nil {
		return errors.New("city query parameter is required")
	}
	h.City = city

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
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
