package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// Upstream health probes.
	ProbeCities   []string
	ProbeInterval time.Duration
	ProbeHistory  int           // max number of probe results per city (0 = unlimited)
	ProbeMaxAge   time.Duration // max age of probe results (0 = unlimited)

	Port string
}

// Load reads configuration from .env and the environment with sensible defaults.
// A missing API key is not an error here; lookups report it per request.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("OPENWEATHER_API_KEY", "")
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("PORT", "8080")
	v.SetDefault("PROBE_CITIES", "")
	v.SetDefault("PROBE_INTERVAL", "5m")
	v.SetDefault("PROBE_HISTORY", 96) // roughly 8h at 5-minute intervals
	v.SetDefault("PROBE_MAX_AGE", "24h")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		OpenWeatherAPIKey:  strings.TrimSpace(v.GetString("OPENWEATHER_API_KEY")),
		OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
		ProbeCities:        splitList(v.GetString("PROBE_CITIES")),
		ProbeHistory:       v.GetInt("PROBE_HISTORY"),
		Port:               v.GetString("PORT"),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ProbeInterval, err = parseDuration(v, "PROBE_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.ProbeMaxAge, err = parseDuration(v, "PROBE_MAX_AGE"); err != nil {
		return nil, err
	}

	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("WARN: OPENWEATHER_API_KEY is not set; weather lookups will fail")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
