package weather

import (
	"time"
)

// RawForecastSample is one 3-hour forecast point as reported by the provider.
// Samples are ordered by ascending Timestamp.
type RawForecastSample struct {
	Timestamp     int64 // unix seconds
	Temperature   float64
	ConditionCode string // provider icon code, e.g. "10d"
	Description   string
}

// Time returns the sample timestamp in loc.
func (s RawForecastSample) Time(loc *time.Location) time.Time {
	return time.Unix(s.Timestamp, 0).In(loc)
}

// CurrentConditions is a single snapshot of the weather at a city.
type CurrentConditions struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64

	Temperature float64
	FeelsLike   float64
	Humidity    float64
	WindSpeed   float64
	Pressure    float64
	Visibility  int // meters

	Sunrise int64 // unix seconds
	Sunset  int64 // unix seconds

	// TimezoneOffset is the city's shift from UTC in seconds.
	TimezoneOffset int

	ConditionCode string
	Description   string
}

// Location returns the fixed zone of the city the conditions were reported for.
func (c CurrentConditions) Location() *time.Location {
	if c.TimezoneOffset == 0 {
		return time.UTC
	}
	return time.FixedZone("", c.TimezoneOffset)
}

// HourlySummary is one entry of the short-range forecast.
type HourlySummary struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
}

// DailySummary describes one calendar day of the forecast.
// Temperature, Icon and Description come from the first sample of the day.
type DailySummary struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	MinTemp     float64 `json:"minTemp"`
	MaxTemp     float64 `json:"maxTemp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// View is the normalized weather record returned to clients.
type View struct {
	Name           string          `json:"name"`
	Country        string          `json:"country"`
	Temperature    float64         `json:"temperature"`
	Description    string          `json:"description"`
	Icon           string          `json:"icon"`
	Humidity       float64         `json:"humidity"`
	WindSpeed      float64         `json:"windSpeed"`
	Pressure       float64         `json:"pressure"`
	Visibility     int             `json:"visibility"` // km
	FeelsLike      float64         `json:"feelsLike"`
	UVIndex        int             `json:"uvIndex"`
	Sunrise        string          `json:"sunrise"`
	Sunset         string          `json:"sunset"`
	Forecast       []DailySummary  `json:"forecast"`
	HourlyForecast []HourlySummary `json:"hourlyForecast"`
}

// ProbeResult records one health check against the upstream provider.
type ProbeResult struct {
	City      string        `json:"city"`
	Timestamp time.Time     `json:"timestamp"` // always UTC
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latencyNs"`
	Error     string        `json:"error,omitempty"`
}
