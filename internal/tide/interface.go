package tide

import (
	"context"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

// PredictionService answers tide queries by station id.
type PredictionService interface {
	GetExtremes(ctx context.Context, stationID string, start, end time.Time) ([]models.TideExtreme, error)
	GetTimeline(ctx context.Context, stationID string, start, end time.Time, fidelity time.Duration) ([]models.TidePoint, error)
	GetHeightAt(ctx context.Context, stationID string, t time.Time) (float64, error)
}

type StationLookup interface {
	FindStation(ctx context.Context, stationID string) (*models.TideStation, error)
}

type ExtremesCacheProvider interface {
	GetExtremes(ctx context.Context, stationID string, start, end time.Time) ([]models.TideExtreme, bool, error)
	SaveExtremes(ctx context.Context, stationID string, start, end time.Time, extremes []models.TideExtreme) error
}

// StateComputer builds a TidalState for a station at an instant.
type StateComputer interface {
	Compute(ctx context.Context, station models.TideStation, distanceKm float64, now time.Time) (*models.TidalState, error)
}
