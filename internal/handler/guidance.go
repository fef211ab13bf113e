package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/guidance"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

const defaultBreathCycleSeconds = 16.0

type GuidanceHandler struct{}

func NewGuidanceHandler() *GuidanceHandler {
	return &GuidanceHandler{}
}

// HandleRequest serves guidance for ?phase= with breath timings for an
// optional ?cycle= length in seconds.
func (h *GuidanceHandler) HandleRequest(_ context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	phase, err := models.ParseTidalPhase(params["phase"])
	if err != nil {
		return api.Error("Invalid phase", http.StatusBadRequest)
	}

	cycle, err := api.ParsePositiveFloat(params, "cycle", defaultBreathCycleSeconds)
	if err != nil {
		return errorResponse(err, "Invalid parameters")
	}

	g, _ := guidance.For(phase)
	breath := guidance.BreathTimings(phase, time.Duration(cycle*float64(time.Second)))
	return api.Success(api.NewGuidanceResponse(g, breath))
}
