package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/guidance"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

type TidesHandler struct {
	stations models.StationFinder
	states   tide.StateComputer
	now      func() time.Time
}

func NewTidesHandler(stations models.StationFinder, states tide.StateComputer) *TidesHandler {
	return &TidesHandler{
		stations: stations,
		states:   states,
		now:      time.Now,
	}
}

// HandleRequest serves the tidal state for ?stationId= or the station nearest
// to ?lat=&lon=.
func (h *TidesHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters
	log.Info().Msg("Handling tides request")

	match, err := resolveStation(ctx, h.stations, params)
	if err != nil {
		return errorResponse(err, "Error finding station")
	}

	state, err := h.states.Compute(ctx, match.Station, match.DistanceKm, h.now())
	if err != nil {
		return errorResponse(err, "Error getting tide data")
	}

	g, _ := guidance.For(state.CurrentPhase)
	nextTurn := ""
	if turn := guidance.NextTurn(state); turn != nil {
		nextTurn = turn.Summary(state.ComputedAt)
	}

	return api.Success(api.NewTidesResponse(state, g, nextTurn))
}
