package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMissingParameter is returned when no city was given.
	ErrMissingParameter = errors.New("city parameter is required")
	// ErrMissingConfiguration is returned when the provider credential is absent.
	ErrMissingConfiguration = errors.New("openweather api key is not configured")
	// ErrCityNotFound is returned when the provider has no match for the city.
	ErrCityNotFound = errors.New("city not found")
	// ErrUpstreamUnavailable covers network failures and non-success responses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUVIndexUnavailable is non-fatal; callers substitute a UV index of 0.
	ErrUVIndexUnavailable = errors.New("uv index unavailable")
)

// Provider abstracts the upstream weather source.
type Provider interface {
	Name() string
	CurrentConditions(ctx context.Context, city string) (CurrentConditions, error)
	Forecast(ctx context.Context, city string) ([]RawForecastSample, error)
	UVIndex(ctx context.Context, lat, lon float64) (float64, error)
}

// ProbeStore is the contract the in-memory probe history must satisfy.
type ProbeStore interface {
	SaveProbe(result ProbeResult)
	GetLatest(city string) (ProbeResult, error)
	GetRange(city string, from, to time.Time) ([]ProbeResult, error)
}
