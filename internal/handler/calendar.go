package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/calendar"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
)

type CalendarHandler struct {
	stations    models.StationFinder
	predictions tide.PredictionService
	now         func() time.Time
}

func NewCalendarHandler(stations models.StationFinder, predictions tide.PredictionService) *CalendarHandler {
	return &CalendarHandler{
		stations:    stations,
		predictions: predictions,
		now:         time.Now,
	}
}

func (h *CalendarHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	match, err := resolveStation(ctx, h.stations, request.QueryStringParameters)
	if err != nil {
		return errorResponse(err, "Error finding station")
	}

	week, err := calendar.ForWeek(ctx, h.predictions, match.Station, h.now())
	if err != nil {
		return errorResponse(err, "Error building tide calendar")
	}

	return api.Success(api.NewCalendarResponse(week))
}
