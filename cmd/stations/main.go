package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/tideresonance/backend-go/internal/app"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/handler"
	"github.com/rs/zerolog/log"
)

var (
	lambdaStart     = lambda.Start // Allow mocking of lambda.Start in tests
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
)

func setup() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// The station directory is loaded by the first request and kept for the
	// life of the execution environment.
	a, err := app.New(context.Background(), cfg, config.GetCacheConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize stations service")
	}

	stationsHandler = handler.NewStationsHandler(a.Stations)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	setupOnce.Do(setup)
	lambdaStart(handleRequest)
}
