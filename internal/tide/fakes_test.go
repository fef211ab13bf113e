package tide

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
)

type rangeCall struct {
	start, end time.Time
}

// fakePredictions serves canned extremes and a linear height function.
type fakePredictions struct {
	mu sync.Mutex

	extremes    []models.TideExtreme
	extremesErr error
	timelineErr error
	heightErr   error
	// heightErrBefore fails height queries strictly before this instant
	heightErrBefore time.Time

	extremesCalls []rangeCall
	timelineCalls []rangeCall
	heightCalls   []time.Time
}

var _ PredictionService = (*fakePredictions)(nil)

func (f *fakePredictions) GetExtremes(_ context.Context, _ string, start, end time.Time) ([]models.TideExtreme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extremesCalls = append(f.extremesCalls, rangeCall{start, end})
	if f.extremesErr != nil {
		return nil, f.extremesErr
	}
	out := make([]models.TideExtreme, 0)
	for _, e := range f.extremes {
		if !e.Time.Before(start) && !e.Time.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePredictions) GetTimeline(_ context.Context, _ string, start, end time.Time, fidelity time.Duration) ([]models.TidePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timelineCalls = append(f.timelineCalls, rangeCall{start, end})
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	if fidelity == 0 {
		fidelity = DefaultTimelineFidelity
	}
	var points []models.TidePoint
	for t := start; t.Before(end); t = t.Add(fidelity) {
		points = append(points, models.TidePoint{Time: t, Height: linearHeight(t)})
	}
	return append(points, models.TidePoint{Time: end, Height: linearHeight(end)}), nil
}

func (f *fakePredictions) GetHeightAt(_ context.Context, _ string, t time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heightCalls = append(f.heightCalls, t)
	if f.heightErr != nil {
		return 0, f.heightErr
	}
	if !f.heightErrBefore.IsZero() && t.Before(f.heightErrBefore) {
		return 0, errors.New("predictor unavailable")
	}
	return linearHeight(t), nil
}

// linearHeight rises 0.6 m per hour from midnight UTC.
func linearHeight(t time.Time) float64 {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return t.Sub(midnight).Hours() * 0.6
}

type stationMap map[string]models.TideStation

func (m stationMap) FindStation(_ context.Context, id string) (*models.TideStation, error) {
	st, ok := m[id]
	if !ok {
		return nil, station.ErrStationNotFound
	}
	return &st, nil
}

func referenceStation(id string) models.TideStation {
	return models.TideStation{
		ID:        id,
		Name:      "Test " + id,
		Latitude:  54.4833,
		Longitude: -0.6167,
		Timezone:  "UTC",
		Type:      models.StationTypeReference,
		Constituents: []models.HarmonicConstituent{
			{Name: "M2", Amplitude: 1.8, Phase: 40},
			{Name: "S2", Amplitude: 0.6, Phase: 75},
			{Name: "K1", Amplitude: 0.1, Phase: 200},
		},
	}
}

func subordinateStation(id, reference string) models.TideStation {
	return models.TideStation{
		ID:        id,
		Name:      "Test " + id,
		Latitude:  54.5,
		Longitude: -0.67,
		Timezone:  "UTC",
		Type:      models.StationTypeSubordinate,
		Offsets: &models.StationOffsets{
			Reference: reference,
			Height:    models.HeightOffsets{High: 0.9, Low: 0.9, Type: models.HeightOffsetRatio},
			Time:      models.TimeOffsets{High: 20, Low: 20},
		},
	}
}
