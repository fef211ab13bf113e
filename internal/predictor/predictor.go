// Package predictor answers tide queries for one set of harmonic constituents.
//
// The core treats a Predictor as a black box. Harmonic is the implementation
// shipped with the service.
package predictor

import (
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

type Predictor interface {
	// Extremes returns the highs and lows in [start, end], ascending and alternating.
	Extremes(start, end time.Time) ([]models.TideExtreme, error)
	// Timeline samples the water level every step from start, always covering end.
	Timeline(start, end time.Time, step time.Duration) ([]models.TidePoint, error)
	HeightAt(t time.Time) (float64, error)
}

// Factory builds a predictor from a constituent set and optional subordinate offsets.
type Factory interface {
	New(constituents []models.HarmonicConstituent, offsets *models.StationOffsets) (Predictor, error)
}

type FactoryFunc func(constituents []models.HarmonicConstituent, offsets *models.StationOffsets) (Predictor, error)

func (f FactoryFunc) New(constituents []models.HarmonicConstituent, offsets *models.StationOffsets) (Predictor, error) {
	return f(constituents, offsets)
}

// HarmonicFactory is the default Factory.
var HarmonicFactory Factory = FactoryFunc(func(constituents []models.HarmonicConstituent, offsets *models.StationOffsets) (Predictor, error) {
	return NewHarmonic(constituents, offsets)
})
