package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
)

// LocationsHandler lists the curated places offered for manual selection.
type LocationsHandler struct{}

func NewLocationsHandler() *LocationsHandler {
	return &LocationsHandler{}
}

func (h *LocationsHandler) HandleRequest(_ context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return api.Success(api.NewLocationsResponse())
}
