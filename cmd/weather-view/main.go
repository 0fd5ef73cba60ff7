package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-view/internal/api/http"
	"github.com/i474232898/weather-view/internal/config"
	"github.com/i474232898/weather-view/internal/metrics"
	"github.com/i474232898/weather-view/internal/scheduler"
	"github.com/i474232898/weather-view/internal/store"
	"github.com/i474232898/weather-view/internal/weather"
	"github.com/i474232898/weather-view/internal/weather/providers"
)

var port string

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-view",
		Short: "City weather lookup service",
		Long:  "Serves current conditions, hourly and daily forecasts for a city from OpenWeatherMap",
		RunE:  runServe,
	}

	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "lookup <city>",
		Short: "Print the weather view for a city as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runLookup,
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// components are the pieces shared by every command.
type components struct {
	cfg     *config.AppConfig
	metrics *metrics.Metrics
	service *weather.Service
}

func build() (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	m := metrics.New()
	probes := store.NewMemoryStore(cfg.ProbeHistory, cfg.ProbeMaxAge)
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, m)

	return &components{
		cfg:     cfg,
		metrics: m,
		service: weather.NewService(provider, probes, m),
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	comp, err := build()
	if err != nil {
		return err
	}

	// Scheduler that periodically probes the provider.
	sched := scheduler.New(comp.cfg.ProbeCities, comp.cfg.ProbeInterval, comp.service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Options{
		Service:     comp.service,
		Metrics:     comp.metrics,
		ProbeCities: comp.cfg.ProbeCities,
	})

	go func() {
		log.Printf("INFO: listening on :%s", comp.cfg.Port)
		if err := app.Listen(":" + comp.cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	comp, err := build()
	if err != nil {
		return err
	}

	view, err := comp.service.GetView(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
