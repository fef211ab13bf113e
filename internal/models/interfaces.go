package models

import "context"

// StationLocator resolves the station closest to a coordinate.
type StationLocator interface {
	FindNearest(ctx context.Context, lat, lon float64) (*StationMatch, error)
}

// StationFinder is the read side of the station directory.
type StationFinder interface {
	StationLocator
	FindStation(ctx context.Context, stationID string) (*TideStation, error)
	Search(ctx context.Context, query string, maxResults int) ([]TideStation, error)
	Near(ctx context.Context, lat, lon, maxDistanceKm float64, maxResults int) ([]StationMatch, error)
}
