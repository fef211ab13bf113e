// Package app wires the station directory, prediction service and state
// compositor from configuration. The Lambda entrypoints and the local server
// share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bbernstein/tideresonance/backend-go/internal/cache"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
	"github.com/bbernstein/tideresonance/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

var ErrNoStationSource = errors.New("no station source configured: set STATION_DB_PATH, STATION_DB_URL or STATION_SQLITE_PATH")

type App struct {
	Config      *config.Config
	Stations    *station.Directory
	Predictions *tide.Service
	States      *tide.Compositor
	Extremes    *cache.ExtremesCache // nil when caching is off

	closers []func() error
}

// New builds the service graph. Cache and S3 tiers are optional and follow
// cacheConfig and cfg.StationBucket.
func New(ctx context.Context, cfg *config.Config, cacheConfig *config.CacheConfig) (*App, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	a := &App{Config: cfg}

	loader, err := a.stationLoader(ctx, cacheConfig)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Stations = station.NewDirectory(loader)

	opts := []tide.ServiceOption{tide.WithDefaultFidelity(cfg.TimelineFidelity)}
	if cacheConfig.EnableLRUCache || cacheConfig.EnableDynamoCache {
		extremes, err := cache.NewExtremesCache(ctx, cacheConfig)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("creating extremes cache: %w", err)
		}
		a.Extremes = extremes
		opts = append(opts, tide.WithExtremesCache(extremes))
	}

	a.Predictions = tide.NewService(a.Stations, cacheConfig, opts...)
	a.States = tide.NewCompositor(a.Predictions)
	return a, nil
}

// stationLoader picks the source of record (a JSON file, then a download) and
// layers the S3 snapshot and the SQLite store over it.
func (a *App) stationLoader(ctx context.Context, cacheConfig *config.CacheConfig) (station.Loader, error) {
	cfg := a.Config

	var source station.Loader
	switch {
	case cfg.StationDBPath != "":
		source = &station.JSONLoader{Path: cfg.StationDBPath}
	case cfg.StationDBURL != "":
		source = &station.HTTPLoader{
			Client: client.New(client.Options{
				BaseURL:    cfg.StationDBURL,
				Timeout:    cfg.HTTPTimeout,
				MaxRetries: cfg.MaxRetries,
				Name:       "station-db",
			}),
		}
	}

	if source != nil && cfg.StationBucket != "" {
		s3Client, err := cache.NewS3Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}
		source = &station.CachedLoader{
			Source: source,
			Cache:  cache.NewS3StationCache(s3Client, cfg.StationBucket, cacheConfig.GetStationListTTL()),
		}
	}

	if cfg.StationSQLitePath == "" {
		if source == nil {
			return nil, ErrNoStationSource
		}
		return source, nil
	}

	store, err := station.OpenSQLiteStore(cfg.StationSQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening station store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	if source != nil {
		if err := store.Provision(ctx, source); err != nil {
			return nil, fmt.Errorf("provisioning station store: %w", err)
		}
	}
	log.Info().Str("path", cfg.StationSQLitePath).Msg("Using SQLite station store")
	return store, nil
}

// Close logs the extremes cache counters and releases the station store.
func (a *App) Close() error {
	if a.Extremes != nil {
		stats := a.Extremes.GetCacheStats()
		log.Info().
			Uint64("lru_hits", stats["lru_hits"]).
			Uint64("lru_misses", stats["lru_misses"]).
			Uint64("store_hits", stats["store_hits"]).
			Uint64("store_misses", stats["store_misses"]).
			Msg("Extremes cache stats")
	}

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
