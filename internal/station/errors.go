package station

import (
	"errors"
	"fmt"
)

var ErrStationNotFound = errors.New("station not found")

// InvalidCoordinatesError is returned for latitudes or longitudes out of range.
type InvalidCoordinatesError struct {
	Field string
	Value float64
}

func (e *InvalidCoordinatesError) Error() string {
	return fmt.Sprintf("invalid %s: %f", e.Field, e.Value)
}
