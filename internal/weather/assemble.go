package weather

import "math"

// Assemble merges current conditions, the UV index and the forecast samples into
// a View. Times are rendered in the city's own zone.
func Assemble(current CurrentConditions, uvIndex float64, samples []RawForecastSample) View {
	loc := current.Location()

	return View{
		Name:           current.Name,
		Country:        current.Country,
		Temperature:    current.Temperature,
		Description:    current.Description,
		Icon:           current.ConditionCode,
		Humidity:       current.Humidity,
		WindSpeed:      current.WindSpeed,
		Pressure:       current.Pressure,
		Visibility:     int(math.Round(float64(current.Visibility) / 1000)),
		FeelsLike:      current.FeelsLike,
		UVIndex:        int(math.Round(uvIndex)),
		Sunrise:        formatClock(current.Sunrise, loc),
		Sunset:         formatClock(current.Sunset, loc),
		Forecast:       DailyForecast(samples, loc),
		HourlyForecast: HourlyForecast(samples, loc),
	}
}
