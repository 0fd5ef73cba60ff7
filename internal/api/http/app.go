package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/weather-view/internal/metrics"
	"github.com/i474232898/weather-view/internal/weather"
)

// Options configures NewApp.
type Options struct {
	Service     *weather.Service
	Metrics     *metrics.Metrics // optional; /metrics is only mounted when set
	ProbeCities []string

	// DisableLogger turns off request logging, mainly for tests.
	DisableLogger bool
}

// NewApp builds the Fiber app with middleware and all routes.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-view",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if !opts.DisableLogger {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(recover.New())

	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	RegisterRoutes(app, opts.Service, opts.ProbeCities)
	return app
}
