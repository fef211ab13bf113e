package station

import (
	"context"
	"fmt"

	"github.com/bbernstein/tideresonance/backend-go/internal/cache"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// CachedLoader serves the station list from a snapshot cache, falling back to
// Source on a miss and refreshing the snapshot in the background.
type CachedLoader struct {
	Source Loader
	Cache  cache.StationListCacheProvider
}

func (l *CachedLoader) Load(ctx context.Context) ([]models.TideStation, error) {
	if l.Cache != nil {
		stations, err := l.Cache.GetStations(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error getting stations from snapshot cache")
		} else if stations != nil {
			log.Debug().Int("station_count", len(stations)).Msg("Snapshot cache HIT for station list")
			return stations, nil
		}
	}

	log.Debug().Msg("Cache MISS for station list, loading from source")

	stations, err := l.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stations from source: %w", err)
	}

	if l.Cache != nil {
		go func() {
			if err := l.Cache.SaveStations(context.Background(), stations); err != nil {
				log.Error().Err(err).Msg("Failed to save stations to snapshot cache")
			}
		}()
	}

	return stations, nil
}
