package handler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
	"github.com/stretchr/testify/require"
)

// mockStationFinder implements models.StationFinder for testing
type mockStationFinder struct {
	findStationFn func(ctx context.Context, stationID string) (*models.TideStation, error)
	findNearestFn func(ctx context.Context, lat, lon float64) (*models.StationMatch, error)
	searchFn      func(ctx context.Context, query string, maxResults int) ([]models.TideStation, error)
	nearFn        func(ctx context.Context, lat, lon, maxDistanceKm float64, maxResults int) ([]models.StationMatch, error)
}

func (m *mockStationFinder) FindStation(ctx context.Context, stationID string) (*models.TideStation, error) {
	if m.findStationFn != nil {
		return m.findStationFn(ctx, stationID)
	}
	return nil, nil
}

func (m *mockStationFinder) FindNearest(ctx context.Context, lat, lon float64) (*models.StationMatch, error) {
	if m.findNearestFn != nil {
		return m.findNearestFn(ctx, lat, lon)
	}
	return nil, nil
}

func (m *mockStationFinder) Search(ctx context.Context, query string, maxResults int) ([]models.TideStation, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, maxResults)
	}
	return nil, nil
}

func (m *mockStationFinder) Near(ctx context.Context, lat, lon, maxDistanceKm float64, maxResults int) ([]models.StationMatch, error) {
	if m.nearFn != nil {
		return m.nearFn(ctx, lat, lon, maxDistanceKm, maxResults)
	}
	return nil, nil
}

func createTestStation(id string) models.TideStation {
	return models.TideStation{
		ID:        id,
		Name:      "Test Station " + id,
		Latitude:  54.4833,
		Longitude: -0.6167,
		Country:   "United Kingdom",
		Timezone:  "Europe/London",
		Type:      models.StationTypeReference,
		Constituents: []models.HarmonicConstituent{
			{Name: "M2", Amplitude: 1.8, Phase: 40},
			{Name: "S2", Amplitude: 0.6, Phase: 75},
			{Name: "K1", Amplitude: 0.1, Phase: 200},
		},
	}
}

func testDirectory() *station.Directory {
	whitby := createTestStation("whitby")
	whitby.Name = "Whitby"
	brest := createTestStation("brest")
	brest.Name = "Brest"
	brest.Country = "France"
	brest.Latitude, brest.Longitude = 48.3829, -4.495
	brest.Timezone = "Europe/Paris"
	return station.NewDirectory(station.StaticLoader{whitby, brest})
}

func request(params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{QueryStringParameters: params}
}

func decodeBody(t *testing.T, response events.APIGatewayProxyResponse) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
	return body
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
