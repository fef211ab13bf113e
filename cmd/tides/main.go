package main

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/tideresonance/backend-go/internal/app"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/handler"
	"github.com/rs/zerolog/log"
)

var (
	lambdaStart      = lambda.Start // Allow mocking of lambda.Start in tests
	tidesHandler     *handler.TidesHandler
	calendarHandler  *handler.CalendarHandler
	guidanceHandler  *handler.GuidanceHandler
	locationsHandler *handler.LocationsHandler
	setupOnce        sync.Once
)

func setup() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	a, err := app.New(context.Background(), cfg, config.GetCacheConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tide service")
	}

	tidesHandler = handler.NewTidesHandler(a.Stations, a.States)
	calendarHandler = handler.NewCalendarHandler(a.Stations, a.Predictions)
	guidanceHandler = handler.NewGuidanceHandler()
	locationsHandler = handler.NewLocationsHandler()
}

// handleRequest serves every read-only tide route from one function, picking
// the handler by path suffix.
func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := strings.TrimSuffix(request.Path, "/")
	switch {
	case strings.HasSuffix(path, "/calendar"):
		return calendarHandler.HandleRequest(ctx, request)
	case strings.HasSuffix(path, "/guidance"):
		return guidanceHandler.HandleRequest(ctx, request)
	case strings.HasSuffix(path, "/locations"):
		return locationsHandler.HandleRequest(ctx, request)
	default:
		return tidesHandler.HandleRequest(ctx, request)
	}
}

func main() {
	setupOnce.Do(setup)
	lambdaStart(handleRequest)
}
