package models

import (
	"fmt"
)

// ExtremesRecord is a persisted set of predicted extremes for a station and time range
type ExtremesRecord struct {
	Key         string        `dynamodbav:"cacheKey"`
	StationID   string        `dynamodbav:"stationId"`
	Start       int64         `dynamodbav:"start"` // unix millis
	End         int64         `dynamodbav:"end"`   // unix millis
	Extremes    []TideExtreme `dynamodbav:"extremes"`
	LastUpdated int64         `dynamodbav:"lastUpdated"`
	TTL         int64         `dynamodbav:"ttl"`
}

// Validate checks if an ExtremesRecord's fields are valid
func (r *ExtremesRecord) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("cache key is required")
	}

	if r.StationID == "" {
		return fmt.Errorf("station ID is required")
	}

	if r.End < r.Start {
		return fmt.Errorf("invalid range: end %d before start %d", r.End, r.Start)
	}

	if err := ValidateExtremes(r.Extremes); err != nil {
		return err
	}

	return nil
}
