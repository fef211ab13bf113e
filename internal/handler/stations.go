package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
)

const (
	defaultNearestLimit = 5
	maxResultsLimit     = 100
	// anyDistanceKm exceeds half the Earth's circumference
	anyDistanceKm = 20100.0
)

type StationsHandler struct {
	stationFinder models.StationFinder
}

func NewStationsHandler(finder models.StationFinder) *StationsHandler {
	return &StationsHandler{
		stationFinder: finder,
	}
}

func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	if stationID, ok := params["stationId"]; ok {
		st, err := h.stationFinder.FindStation(ctx, stationID)
		if err != nil {
			return errorResponse(err, "Error finding station")
		}
		if st == nil {
			return api.Error("Station not found", http.StatusNotFound)
		}
		return api.Success(api.NewStationsResponse([]models.TideStation{*st}))
	}

	if query, ok := params["q"]; ok {
		limit, err := api.ParsePositiveInt(params, "limit", station.DefaultSearchResults, maxResultsLimit)
		if err != nil {
			return errorResponse(err, "Invalid parameters")
		}
		stations, err := h.stationFinder.Search(ctx, query, limit)
		if err != nil {
			return errorResponse(err, "Error searching stations")
		}
		return api.Success(api.NewStationsResponse(stations))
	}

	lat, lon, err := api.ParseCoordinates(params)
	if err != nil {
		return errorResponse(err, "Invalid parameters")
	}

	limit, err := api.ParsePositiveInt(params, "limit", defaultNearestLimit, maxResultsLimit)
	if err != nil {
		return errorResponse(err, "Invalid parameters")
	}
	maxDistance, err := api.ParsePositiveFloat(params, "maxDistance", anyDistanceKm)
	if err != nil {
		return errorResponse(err, "Invalid parameters")
	}

	matches, err := h.stationFinder.Near(ctx, lat, lon, maxDistance, limit)
	if err != nil {
		return errorResponse(err, "Error finding stations")
	}

	return api.Success(api.NewNearbyStationsResponse(matches))
}
