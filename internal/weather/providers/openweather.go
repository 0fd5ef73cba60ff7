package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-view/internal/metrics"
	"github.com/i474232898/weather-view/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

const (
	endpointWeather  = "weather"
	endpointForecast = "forecast"
	endpointUVI      = "uvi"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	client   *http.Client
	circuits map[string]*gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects the public API.
// m may be nil.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string, m *metrics.Metrics) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuits: map[string]*gobreaker.CircuitBreaker{
			endpointWeather:  newCircuitBreaker("openweather-weather"),
			endpointForecast: newCircuitBreaker("openweather-forecast"),
			endpointUVI:      newCircuitBreaker("openweather-uvi"),
		},
		metrics: m,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// currentPayload mirrors the fields of /weather this service uses.
type currentPayload struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

// forecastPayload mirrors the fields of /forecast this service uses.
type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

type uviPayload struct {
	Value float64 `json:"value"`
}

func (p *OpenWeatherProvider) CurrentConditions(ctx context.Context, city string) (weather.CurrentConditions, error) {
	if err := p.checkCity(city); err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload currentPayload
	if err := p.get(ctx, endpointWeather, p.cityQuery(city), &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	description, icon := "", ""
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
		icon = payload.Weather[0].Icon
	}

	return weather.CurrentConditions{
		Name:           payload.Name,
		Country:        payload.Sys.Country,
		Lat:            payload.Coord.Lat,
		Lon:            payload.Coord.Lon,
		Temperature:    payload.Main.Temp,
		FeelsLike:      payload.Main.FeelsLike,
		Humidity:       payload.Main.Humidity,
		WindSpeed:      payload.Wind.Speed,
		Pressure:       payload.Main.Pressure,
		Visibility:     payload.Visibility,
		Sunrise:        payload.Sys.Sunrise,
		Sunset:         payload.Sys.Sunset,
		TimezoneOffset: payload.Timezone,
		ConditionCode:  icon,
		Description:    description,
	}, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string) ([]weather.RawForecastSample, error) {
	if err := p.checkCity(city); err != nil {
		return nil, err
	}

	var payload forecastPayload
	if err := p.get(ctx, endpointForecast, p.cityQuery(city), &payload); err != nil {
		return nil, err
	}

	samples := make([]weather.RawForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		sample := weather.RawForecastSample{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			sample.ConditionCode = item.Weather[0].Icon
			sample.Description = item.Weather[0].Description
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func (p *OpenWeatherProvider) UVIndex(ctx context.Context, lat, lon float64) (float64, error) {
	if p.apiKey == "" {
		return 0, weather.ErrMissingConfiguration
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var payload uviPayload
	if err := p.get(ctx, endpointUVI, values, &payload); err != nil {
		return 0, fmt.Errorf("%w: %w", weather.ErrUVIndexUnavailable, err)
	}
	return payload.Value, nil
}

func (p *OpenWeatherProvider) checkCity(city string) error {
	if strings.TrimSpace(city) == "" {
		return weather.ErrMissingParameter
	}
	if p.apiKey == "" {
		return weather.ErrMissingConfiguration
	}
	return nil
}

func (p *OpenWeatherProvider) cityQuery(city string) url.Values {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	return values
}

// get calls one endpoint and records its outcome.
func (p *OpenWeatherProvider) get(ctx context.Context, endpoint string, values url.Values, out any) error {
	u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())

	start := time.Now()
	err := doRequest(ctx, p.client, p.circuits[endpoint], u, out)
	p.metrics.ObserveUpstream(endpoint, outcomeOf(err), time.Since(start))

	if err != nil {
		return fmt.Errorf("%s %s: %w", p.name, endpoint, err)
	}
	return nil
}
