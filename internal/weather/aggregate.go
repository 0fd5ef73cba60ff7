package weather

import "time"

const (
	// MaxHourlyEntries caps the short-range forecast.
	MaxHourlyEntries = 24
	// MaxDailyEntries caps the number of distinct days in the daily forecast.
	MaxDailyEntries = 7

	timeLabelLayout = "03:04 PM"
	dateLabelLayout = "Mon, Jan 2"
)

// HourlyForecast returns the next min(24, len(samples)) samples as hourly entries.
// The provider emits one sample every three hours, so entries are "next available
// samples" rather than true per-hour values.
func HourlyForecast(samples []RawForecastSample, loc *time.Location) []HourlySummary {
	n := min(MaxHourlyEntries, len(samples))
	hourly := make([]HourlySummary, 0, n)

	for _, s := range samples[:n] {
		hourly = append(hourly, HourlySummary{
			Time:        s.Time(loc).Format(timeLabelLayout),
			Temperature: s.Temperature,
			Icon:        s.ConditionCode,
			Description: s.Description,
		})
	}
	return hourly
}

// DailyForecast groups samples by calendar day in loc, in order of first occurrence.
// The first sample of a day is its representative; min/max span every sample that
// falls on the same day. At most MaxDailyEntries days are returned.
func DailyForecast(samples []RawForecastSample, loc *time.Location) []DailySummary {
	type dayKey struct {
		year  int
		month time.Month
		day   int
	}
	keyOf := func(s RawForecastSample) dayKey {
		y, m, d := s.Time(loc).Date()
		return dayKey{y, m, d}
	}

	daily := make([]DailySummary, 0, MaxDailyEntries)
	processed := make(map[dayKey]struct{})

	for _, first := range samples {
		if len(daily) >= MaxDailyEntries {
			break
		}

		key := keyOf(first)
		if _, seen := processed[key]; seen {
			continue
		}
		processed[key] = struct{}{}

		minTemp, maxTemp := first.Temperature, first.Temperature
		for _, s := range samples {
			if keyOf(s) != key {
				continue
			}
			minTemp = min(minTemp, s.Temperature)
			maxTemp = max(maxTemp, s.Temperature)
		}

		daily = append(daily, DailySummary{
			Date:        first.Time(loc).Format(dateLabelLayout),
			Temperature: first.Temperature,
			MinTemp:     minTemp,
			MaxTemp:     maxTemp,
			Description: first.Description,
			Icon:        first.ConditionCode,
		})
	}
	return daily
}

// formatClock renders unix seconds as a time-of-day label in loc.
func formatClock(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format(timeLabelLayout)
}
