package tide

import (
	"context"
	"errors"
	"fmt"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
)

// Resolution is what a predictor is built from: the constituents to sum and,
// for subordinate stations, the offsets to apply.
type Resolution struct {
	Station           models.TideStation
	ConstituentSource []models.HarmonicConstituent
	Offsets           *models.StationOffsets
}

// Resolver turns a station id into a Resolution. It keeps no state.
type Resolver struct {
	stations StationLookup
}

func NewResolver(stations StationLookup) *Resolver {
	return &Resolver{stations: stations}
}

func (r *Resolver) Resolve(ctx context.Context, stationID string) (*Resolution, error) {
	st, err := r.find(ctx, stationID)
	if err != nil {
		return nil, err
	}

	if !st.IsSubordinate() {
		if len(st.Constituents) == 0 {
			return nil, NewInvalidStationDataError(stationID, "reference station has no harmonic constituents", nil)
		}
		return &Resolution{Station: *st, ConstituentSource: st.Constituents}, nil
	}

	if st.Offsets == nil {
		return nil, NewInvalidStationDataError(stationID, "subordinate station has no offsets", nil)
	}

	ref, err := r.find(ctx, st.Offsets.Reference)
	if err != nil {
		var notFound *StationNotFoundError
		if errors.As(err, &notFound) {
			return nil, NewInvalidStationDataError(stationID, fmt.Sprintf("reference station %q is missing", st.Offsets.Reference), err)
		}
		return nil, err
	}
	if len(ref.Constituents) == 0 {
		return nil, NewInvalidStationDataError(stationID, fmt.Sprintf("reference station %q has no harmonic constituents", ref.ID), nil)
	}

	offsets := *st.Offsets
	return &Resolution{Station: *st, ConstituentSource: ref.Constituents, Offsets: &offsets}, nil
}

func (r *Resolver) find(ctx context.Context, stationID string) (*models.TideStation, error) {
	st, err := r.stations.FindStation(ctx, stationID)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			return nil, NewStationNotFoundError(stationID, err)
		}
		return nil, fmt.Errorf("finding station %s: %w", stationID, err)
	}
	if st == nil {
		return nil, NewStationNotFoundError(stationID, nil)
	}
	return st, nil
}
