// Command server runs the tide API locally with a live refresh controller for
// the configured home location.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/app"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/handler"
	"github.com/bbernstein/tideresonance/backend-go/internal/notify"
	"github.com/bbernstein/tideresonance/backend-go/internal/refresh"
	"github.com/bbernstein/tideresonance/backend-go/internal/telemetry"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "tideresonance",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Error shutting down tracing")
		}
	}()
	if cfg.TracingEnabled {
		log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("Tracing enabled")
	}

	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing station store")
		}
	}()

	controller := refresh.New(a.Stations, a.States, refresh.WithInterval(cfg.RefreshInterval))
	defer controller.Stop()

	if cfg.AlertsEnabled {
		alerts := notify.NewScheduler(notify.LogNotifier{}, notify.SettingsFromConfig(cfg))
		defer alerts.Stop()

		updates, unsubscribe := controller.Subscribe()
		defer unsubscribe()
		go alerts.Follow(ctx, updates)
	}

	home := cfg.FallbackLocation
	go func() {
		// the first load fetches the station directory, so it runs beside the listener
		if err := controller.SetLocation(ctx, &home); err != nil {
			log.Warn().Err(err).Str("location_key", home.Key()).Msg("Initial tidal state unavailable")
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Tides:              handler.NewTidesHandler(a.Stations, a.States).HandleRequest,
		Stations:           handler.NewStationsHandler(a.Stations).HandleRequest,
		Calendar:           handler.NewCalendarHandler(a.Stations, a.Predictions).HandleRequest,
		Guidance:           handler.NewGuidanceHandler().HandleRequest,
		Locations:          handler.NewLocationsHandler().HandleRequest,
		Live:               handler.NewLiveHandler(controller).HandleRequest,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("home", home.Key()).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
