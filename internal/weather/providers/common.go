package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-view/internal/common"
	"github.com/i474232898/weather-view/internal/metrics"
	"github.com/i474232898/weather-view/internal/weather"
)

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// maxErrorBody bounds how much of an error response is kept for diagnosis.
const maxErrorBody = 512

// newCircuitBreaker trips after consecutive upstream failures. A city that does
// not exist is a valid answer and never counts against the provider.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, weather.ErrCityNotFound)
		},
	})
}

// providerError is the error body OpenWeatherMap returns on failure.
// cod is a string on some endpoints and a number on others.
type providerError struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
}

// doRequest executes a single GET through the circuit breaker and decodes a
// successful JSON body into out. No retries are attempted.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	url string,
	out any,
) error {
	if client == nil {
		return errNoHTTPClient
	}

	_, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, classifyStatus(resp)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", weather.ErrUpstreamUnavailable, err)
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w: %v", weather.ErrUpstreamUnavailable, errCircuitOpen, err)
	}
	return err
}

// classifyStatus maps a non-2xx response to the weather error taxonomy.
func classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var perr providerError
	_ = json.Unmarshal(body, &perr)

	if resp.StatusCode == http.StatusNotFound || common.HasAny(perr.Message, "city not found") {
		return fmt.Errorf("%w: %s", weather.ErrCityNotFound, perr.Message)
	}
	return fmt.Errorf("%w: status %d: %s", weather.ErrUpstreamUnavailable, resp.StatusCode, string(body))
}

// outcomeOf maps an error to a metrics outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, weather.ErrCityNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
