package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/calendar"
	"github.com/bbernstein/tideresonance/backend-go/internal/guidance"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/station"
)

var ErrMissingCoordinates = errors.New("lat and lon are required")

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

func (r APIResponse) GetResponseType() string {
	return r.ResponseType
}

type StationsResponse struct {
	APIResponse
	Stations []models.TideStation `json:"stations"`
}

type NearbyStationsResponse struct {
	APIResponse
	Stations []models.StationMatch `json:"stations"`
}

type TidesResponse struct {
	APIResponse
	State    *models.TidalState `json:"state"`
	Guidance guidance.Guidance  `json:"guidance"`
	NextTurn string             `json:"nextTurn,omitempty"`
}

type CalendarResponse struct {
	APIResponse
	Calendar *calendar.Week `json:"calendar"`
}

type RegionLocations struct {
	Region    station.Region            `json:"region"`
	Locations []station.CuratedLocation `json:"locations"`
}

type LocationsResponse struct {
	APIResponse
	Regions []RegionLocations `json:"regions"`
}

type GuidanceResponse struct {
	APIResponse
	Guidance guidance.Guidance `json:"guidance"`
	Breath   guidance.Timings  `json:"breath"`
}

type LiveResponse struct {
	APIResponse
	Status      string             `json:"status"`
	IsLoading   bool               `json:"isLoading"`
	Error       string             `json:"error,omitempty"`
	LocationKey string             `json:"locationKey,omitempty"`
	State       *models.TidalState `json:"state"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

// Station payloads in responses are summaries; constituents stay server side.
func NewStationsResponse(stations []models.TideStation) *StationsResponse {
	summaries := make([]models.TideStation, len(stations))
	for i, s := range stations {
		summaries[i] = s.Summary()
	}
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Stations:    summaries,
	}
}

func NewNearbyStationsResponse(matches []models.StationMatch) *NearbyStationsResponse {
	summaries := make([]models.StationMatch, len(matches))
	for i, m := range matches {
		summaries[i] = models.StationMatch{Station: m.Station.Summary(), DistanceKm: m.DistanceKm}
	}
	return &NearbyStationsResponse{
		APIResponse: APIResponse{ResponseType: "nearbyStations"},
		Stations:    summaries,
	}
}

func NewTidesResponse(state *models.TidalState, g guidance.Guidance, nextTurn string) *TidesResponse {
	return &TidesResponse{
		APIResponse: APIResponse{ResponseType: "tides"},
		State:       state.Summary(),
		Guidance:    g,
		NextTurn:    nextTurn,
	}
}

func NewCalendarResponse(week *calendar.Week) *CalendarResponse {
	return &CalendarResponse{
		APIResponse: APIResponse{ResponseType: "calendar"},
		Calendar:    week,
	}
}

// NewLocationsResponse lists the curated locations grouped by region in
// display order. Empty regions are left out.
func NewLocationsResponse() *LocationsResponse {
	groups := station.CuratedByRegion()
	regions := make([]RegionLocations, 0, len(station.Regions))
	for _, region := range station.Regions {
		if len(groups[region]) == 0 {
			continue
		}
		regions = append(regions, RegionLocations{Region: region, Locations: groups[region]})
	}
	return &LocationsResponse{
		APIResponse: APIResponse{ResponseType: "locations"},
		Regions:     regions,
	}
}

func NewGuidanceResponse(g guidance.Guidance, breath guidance.Timings) *GuidanceResponse {
	return &GuidanceResponse{
		APIResponse: APIResponse{ResponseType: "guidance"},
		Guidance:    g,
		Breath:      breath,
	}
}

func NewLiveResponse(status string, isLoading bool, errMessage, locationKey string, state *models.TidalState) *LiveResponse {
	return &LiveResponse{
		APIResponse: APIResponse{ResponseType: "live"},
		Status:      status,
		IsLoading:   isLoading,
		Error:       errMessage,
		LocationKey: locationKey,
		State:       state.Summary(),
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    defaultHeaders(),
		Body:       string(body),
	}, nil
}

func defaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// HasCoordinates reports whether both lat and lon were supplied.
func HasCoordinates(params map[string]string) bool {
	_, hasLat := params["lat"]
	_, hasLon := params["lon"]
	return hasLat && hasLon
}

// Parameter parsing helpers
func ParseCoordinates(params map[string]string) (float64, float64, error) {
	if !HasCoordinates(params) {
		return 0, 0, ErrMissingCoordinates
	}

	lat, err := strconv.ParseFloat(params["lat"], 64)
	if err != nil {
		return 0, 0, err
	}

	lon, err := strconv.ParseFloat(params["lon"], 64)
	if err != nil {
		return 0, 0, err
	}

	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, InvalidCoordinatesError{}
	}

	return lat, lon, nil
}

// ParsePositiveInt reads params[key], falling back to def when absent and
// capping at limit. Zero, negative or malformed values are an error.
func ParsePositiveInt(params map[string]string, key string, def, limit int) (int, error) {
	str, ok := params[key]
	if !ok || str == "" {
		return def, nil
	}
	n, err := strconv.Atoi(str)
	if err != nil || n <= 0 {
		return 0, InvalidParameterError{Name: key}
	}
	return min(n, limit), nil
}

// ParsePositiveFloat is ParsePositiveInt for floats, without a cap.
func ParsePositiveFloat(params map[string]string, key string, def float64) (float64, error) {
	str, ok := params[key]
	if !ok || str == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, InvalidParameterError{Name: key}
	}
	return f, nil
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

type InvalidParameterError struct {
	Name string
}

func (e InvalidParameterError) Error() string {
	return "Invalid parameter: " + e.Name
}
