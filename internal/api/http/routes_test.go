package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-view/internal/metrics"
	"github.com/i474232898/weather-view/internal/store"
	"github.com/i474232898/weather-view/internal/weather"
)

// stubProvider is a scripted weather.Provider that counts upstream calls.
type stubProvider struct {
	currentErr  error
	forecastErr error
	uvErr       error
	panicIn     string // "current" or "forecast"

	calls atomic.Int32
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) CurrentConditions(ctx context.Context, city string) (weather.CurrentConditions, error) {
	s.calls.Add(1)
	if s.panicIn == "current" {
		var b []byte
		_ = b[:3]
	}
	if s.currentErr != nil {
		return weather.CurrentConditions{}, s.currentErr
	}
	return weather.CurrentConditions{
		Name:          city,
		Country:       "FR",
		Lat:           48.85,
		Lon:           2.35,
		Temperature:   18.2,
		FeelsLike:     17.9,
		Humidity:      60,
		WindSpeed:     3.1,
		Pressure:      1016,
		Visibility:    10000,
		Sunrise:       time.Date(2024, time.June, 1, 3, 50, 0, 0, time.UTC).Unix(),
		Sunset:        time.Date(2024, time.June, 1, 19, 45, 0, 0, time.UTC).Unix(),
		ConditionCode: "01d",
		Description:   "clear sky",
	}, nil
}

func (s *stubProvider) Forecast(ctx context.Context, city string) ([]weather.RawForecastSample, error) {
	s.calls.Add(1)
	if s.panicIn == "forecast" {
		panic("forecast decoder exploded")
	}
	if s.forecastErr != nil {
		return nil, s.forecastErr
	}
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]weather.RawForecastSample, 0, 40)
	for i := 0; i < 40; i++ {
		samples = append(samples, weather.RawForecastSample{
			Timestamp:     start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature:   float64(10 + i%8),
			ConditionCode: "02d",
			Description:   "few clouds",
		})
	}
	return samples, nil
}

func (s *stubProvider) UVIndex(ctx context.Context, lat, lon float64) (float64, error) {
	s.calls.Add(1)
	if s.uvErr != nil {
		return 0, s.uvErr
	}
	return 7.2, nil
}

func newTestApp(t *testing.T, p weather.Provider, probes weather.ProbeStore) *fiber.App {
	t.Helper()
	svc := weather.NewService(p, probes, nil)
	return NewApp(Options{
		Service:       svc,
		Metrics:       metrics.New(),
		ProbeCities:   []string{"Paris"},
		DisableLogger: true,
	})
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	return resp.StatusCode, out
}

func TestWeather_MissingCity(t *testing.T) {
	p := &stubProvider{}
	app := newTestApp(t, p, nil)

	for _, target := range []string{"/api/weather", "/api/weather?city="} {
		status, body := doGet(t, app, target)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, map[string]any{"error": "City parameter is required"}, body)
	}
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestWeather_Success(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, nil)

	status, body := doGet(t, app, "/api/weather?city=Paris")

	require.Equal(t, http.StatusOK, status)
	for _, field := range []string{
		"name", "country", "temperature", "description", "icon", "humidity", "windSpeed",
		"pressure", "visibility", "feelsLike", "uvIndex", "sunrise", "sunset", "forecast", "hourlyForecast",
	} {
		assert.Contains(t, body, field)
	}
	assert.Equal(t, "Paris", body["name"])
	assert.InDelta(t, 7, body["uvIndex"], 0.001)
	assert.InDelta(t, 10, body["visibility"], 0.001)
	assert.Equal(t, "03:50 AM", body["sunrise"])
	assert.Len(t, body["hourlyForecast"], 24)
	assert.Len(t, body["forecast"], 5)

	first := body["forecast"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sat, Jun 1", first["date"])
	assert.InDelta(t, 10, first["minTemp"], 0.001)
	assert.InDelta(t, 17, first["maxTemp"], 0.001)
}

func TestWeather_UVFailureStillSucceeds(t *testing.T) {
	app := newTestApp(t, &stubProvider{uvErr: weather.ErrUVIndexUnavailable}, nil)

	status, body := doGet(t, app, "/api/weather?city=Paris")

	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 0, body["uvIndex"], 0.001)
	assert.Equal(t, "clear sky", body["description"])
}

func TestWeather_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		status   int
		message  string
	}{
		{
			name:     "not_configured",
			provider: &stubProvider{currentErr: weather.ErrMissingConfiguration},
			status:   http.StatusInternalServerError,
			message:  "OpenWeather API key is not configured",
		},
		{
			name:     "city_not_found",
			provider: &stubProvider{currentErr: fmt.Errorf("%w: city not found", weather.ErrCityNotFound)},
			status:   http.StatusNotFound,
			message:  "City not found in our cosmic database",
		},
		{
			name:     "current_unavailable",
			provider: &stubProvider{currentErr: fmt.Errorf("%w: status 502", weather.ErrUpstreamUnavailable)},
			status:   http.StatusInternalServerError,
			message:  "Failed to fetch weather data from the cosmos",
		},
		{
			name:     "forecast_unavailable",
			provider: &stubProvider{forecastErr: fmt.Errorf("%w: status 500", weather.ErrUpstreamUnavailable)},
			status:   http.StatusInternalServerError,
			message:  "Failed to fetch weather data from the cosmos",
		},
		{
			name:     "current_panics",
			provider: &stubProvider{panicIn: "current"},
			status:   http.StatusInternalServerError,
			message:  "Failed to fetch weather data from the cosmos",
		},
		{
			name:     "forecast_panics",
			provider: &stubProvider{panicIn: "forecast"},
			status:   http.StatusInternalServerError,
			message:  "Failed to fetch weather data from the cosmos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.provider, nil)

			status, body := doGet(t, app, "/api/weather?city=Paris")

			assert.Equal(t, tt.status, status)
			assert.Equal(t, map[string]any{"error": tt.message}, body)
		})
	}
}

func TestWeather_NotFoundSkipsForecastAndUV(t *testing.T) {
	p := &stubProvider{currentErr: weather.ErrCityNotFound}
	app := newTestApp(t, p, nil)

	status, _ := doGet(t, app, "/api/weather?city=Atlantis")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestHealth_ReportsLatestProbe(t *testing.T) {
	probes := store.NewMemoryStore(10, time.Hour)
	p := &stubProvider{}
	svc := weather.NewService(p, probes, nil)
	svc.Probe(context.Background(), "Paris")

	app := NewApp(Options{Service: svc, ProbeCities: []string{"Paris", "Oslo"}, DisableLogger: true})

	status, body := doGet(t, app, "/health")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	upstream, ok := body["upstream"].([]any)
	require.True(t, ok)
	require.Len(t, upstream, 1)
	assert.Equal(t, true, upstream[0].(map[string]any)["healthy"])
}

func TestHealth_EmptyUpstreamIsArray(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, store.NewMemoryStore(10, time.Hour))

	status, body := doGet(t, app, "/health")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["upstream"])
}

func TestProbes_Validation(t *testing.T) {
	probes := store.NewMemoryStore(10, time.Hour)
	app := newTestApp(t, &stubProvider{}, probes)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing_city", "/api/v1/probes?from=0&to=10", http.StatusBadRequest},
		{"missing_range", "/api/v1/probes?city=Paris", http.StatusBadRequest},
		{"bad_time", "/api/v1/probes?city=Paris&from=yesterday&to=10", http.StatusBadRequest},
		{"inverted_range", "/api/v1/probes?city=Paris&from=2024-06-02T00:00:00Z&to=2024-06-01T00:00:00Z", http.StatusBadRequest},
		{"no_history", "/api/v1/probes?city=Paris&from=0&to=10", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, tt.target)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestProbes_ReturnsHistory(t *testing.T) {
	probes := store.NewMemoryStore(10, 0)
	p := &stubProvider{}
	svc := weather.NewService(p, probes, nil)
	svc.Probe(context.Background(), "Paris")

	app := NewApp(Options{Service: svc, DisableLogger: true})

	from := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	to := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	status, body := doGet(t, app, "/api/v1/probes?city=Paris&from="+from+"&to="+to)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Paris", body["city"])
	assert.Len(t, body["probes"], 1)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderContentType))
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}
