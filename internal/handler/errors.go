package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/refresh"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

// errorResponse maps domain errors to status codes; anything unrecognised is
// logged and reported as fallback with a 500.
func errorResponse(err error, fallback string) (events.APIGatewayProxyResponse, error) {
	var (
		apiCoordErr api.InvalidCoordinatesError
		coordErr    *station.InvalidCoordinatesError
		paramErr    api.InvalidParameterError
		rangeErr    *tide.InvalidRangeError
		numErr      *strconv.NumError
	)

	switch {
	case errors.Is(err, api.ErrMissingCoordinates):
		return api.Error(err.Error(), http.StatusBadRequest)
	case errors.As(err, &apiCoordErr), errors.As(err, &coordErr):
		return api.Error("Invalid coordinates", http.StatusBadRequest)
	case errors.As(err, &numErr):
		return api.Error("Invalid parameters", http.StatusBadRequest)
	case errors.As(err, &paramErr):
		return api.Error(paramErr.Error(), http.StatusBadRequest)
	case errors.As(err, &rangeErr):
		return api.Error(rangeErr.Error(), http.StatusBadRequest)
	case errors.Is(err, refresh.ErrNoStationNearby):
		return api.Error("No tide station found nearby", http.StatusNotFound)
	case tide.IsNotFound(err):
		return api.Error("Station not found", http.StatusNotFound)
	}

	log.Error().Err(err).Msg(fallback)
	return api.Error(fallback, http.StatusInternalServerError)
}

// liveErrorMessage is the client-facing text for a failed refresh. The
// controller has already logged the underlying error.
func liveErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, refresh.ErrNoStationNearby):
		return "No tide station found nearby"
	case tide.IsNotFound(err):
		return "Station not found"
	}
	return "Error getting tide data"
}

// resolveStation picks the station named by stationId, or the one nearest to
// lat/lon.
func resolveStation(ctx context.Context, stations models.StationFinder, params map[string]string) (*models.StationMatch, error) {
	if stationID, ok := params["stationId"]; ok && stationID != "" {
		st, err := stations.FindStation(ctx, stationID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, tide.NewStationNotFoundError(stationID, nil)
		}
		return &models.StationMatch{Station: *st}, nil
	}

	lat, lon, err := api.ParseCoordinates(params)
	if err != nil {
		return nil, err
	}

	match, err := stations.FindNearest(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, refresh.ErrNoStationNearby
	}
	return match, nil
}
