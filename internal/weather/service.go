package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-view/internal/metrics"
)

// Service orchestrates the upstream calls for one weather view and records
// upstream health probes.
type Service struct {
	provider Provider
	probes   ProbeStore
	metrics  *metrics.Metrics
}

// NewService creates a new Service. probes and m may be nil.
func NewService(provider Provider, probes ProbeStore, m *metrics.Metrics) *Service {
	return &Service{
		provider: provider,
		probes:   probes,
		metrics:  m,
	}
}

// GetView fetches current conditions, then the forecast and UV index concurrently,
// and assembles the normalized view. A failed UV lookup yields a UV index of 0.
func (s *Service) GetView(ctx context.Context, city string) (View, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		s.metrics.ObserveView(metrics.OutcomeBadRequest)
		return View{}, ErrMissingParameter
	}

	current, err := s.provider.CurrentConditions(ctx, city)
	if err != nil {
		s.observeFailure(err)
		return View{}, fmt.Errorf("current conditions for %q: %w", city, err)
	}

	var (
		samples []RawForecastSample
		uvIndex float64
	)

	// The UV call runs on ctx so a failed forecast does not cancel it into a
	// spurious upstream failure.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered("forecast", func() error {
		var err error
		samples, err = s.provider.Forecast(gctx, city)
		if err != nil {
			return fmt.Errorf("forecast for %q: %w", city, err)
		}
		return nil
	}))
	g.Go(func() error {
		err := recovered("uv index", func() error {
			uv, err := s.provider.UVIndex(ctx, current.Lat, current.Lon)
			if err != nil {
				return err
			}
			uvIndex = uv
			return nil
		})()
		if err != nil {
			log.Printf("INFO: uv index for %s unavailable, using 0: %v", city, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.observeFailure(err)
		return View{}, err
	}

	s.metrics.ObserveView(metrics.OutcomeSuccess)
	log.Printf("DEBUG: assembled view for %s with %d forecast samples", city, len(samples))
	return Assemble(current, uvIndex, samples), nil
}

// recovered turns a panic in fn into an ErrUpstreamUnavailable error. Goroutines
// started by the errgroup are outside the reach of the HTTP recover middleware.
func recovered(op string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: panic in %s: %v\n%s", op, r, debug.Stack())
				err = fmt.Errorf("%w: %s panicked: %v", ErrUpstreamUnavailable, op, r)
			}
		}()
		return fn()
	}
}

func (s *Service) observeFailure(err error) {
	switch {
	case errors.Is(err, ErrMissingConfiguration):
		s.metrics.ObserveView(metrics.OutcomeMisconfigured)
	case errors.Is(err, ErrCityNotFound):
		s.metrics.ObserveView(metrics.OutcomeNotFound)
	case errors.Is(err, ErrMissingParameter):
		s.metrics.ObserveView(metrics.OutcomeBadRequest)
	default:
		s.metrics.ObserveView(metrics.OutcomeError)
	}
}

// Probe issues a single current-conditions call for city and records whether
// the provider answered. A not-found reply is an answer and counts as healthy.
func (s *Service) Probe(ctx context.Context, city string) ProbeResult {
	start := time.Now()
	_, err := s.provider.CurrentConditions(ctx, city)

	result := ProbeResult{
		City:      city,
		Timestamp: start.UTC(),
		Healthy:   err == nil || errors.Is(err, ErrCityNotFound),
		Latency:   time.Since(start),
	}
	if !result.Healthy {
		result.Error = err.Error()
	}

	s.metrics.SetUpstreamUp(result.Healthy)
	if s.probes != nil {
		s.probes.SaveProbe(result)
	}
	return result
}

// LatestProbe returns the most recent probe for city.
func (s *Service) LatestProbe(city string) (ProbeResult, error) {
	if s.probes == nil {
		return ProbeResult{}, fmt.Errorf("probe history not configured")
	}
	return s.probes.GetLatest(city)
}

// ProbeRange returns the probes for city between from and to (inclusive).
func (s *Service) ProbeRange(city string, from, to time.Time) ([]ProbeResult, error) {
	if s.probes == nil {
		return nil, fmt.Errorf("probe history not configured")
	}
	return s.probes.GetRange(city, from, to)
}
