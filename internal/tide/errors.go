package tide

import (
	"errors"
	"fmt"

	"github.com/bbernstein/tideresonance/backend-go/internal/station"
)

// StationNotFoundError is returned when no station matches an id.
type StationNotFoundError struct {
	StationID string
	Err       error
}

func (e *StationNotFoundError) Error() string {
	return fmt.Sprintf("station not found: %s", e.StationID)
}

func (e *StationNotFoundError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the directory sentinel even when Err is nil.
func (e *StationNotFoundError) Is(target error) bool {
	return target == station.ErrStationNotFound
}

func NewStationNotFoundError(stationID string, err error) *StationNotFoundError {
	return &StationNotFoundError{StationID: stationID, Err: err}
}

// InvalidStationDataError marks a station record that cannot be predicted from,
// such as a subordinate without offsets or with a missing reference station.
type InvalidStationDataError struct {
	StationID string
	Reason    string
	Err       error
}

func (e *InvalidStationDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid station data for %s: %s: %v", e.StationID, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid station data for %s: %s", e.StationID, e.Reason)
}

func (e *InvalidStationDataError) Unwrap() error {
	return e.Err
}

func NewInvalidStationDataError(stationID, reason string, err error) *InvalidStationDataError {
	return &InvalidStationDataError{StationID: stationID, Reason: reason, Err: err}
}

// PredictionError wraps a predictor failure for one operation.
type PredictionError struct {
	StationID string
	Operation string
	Err       error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction %s failed for %s: %v", e.Operation, e.StationID, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

func NewPredictionError(stationID, operation string, err error) *PredictionError {
	return &PredictionError{StationID: stationID, Operation: operation, Err: err}
}

// Error when a requested time range is unusable
type InvalidRangeError struct {
	Message string
}

func (e *InvalidRangeError) Error() string {
	return e.Message
}

func NewInvalidRangeError(message string) *InvalidRangeError {
	return &InvalidRangeError{
		Message: message,
	}
}

// IsNotFound reports whether err means the requested station does not exist.
// A subordinate whose reference is missing is a data defect, not a miss.
func IsNotFound(err error) bool {
	var invalid *InvalidStationDataError
	if errors.As(err, &invalid) {
		return false
	}
	return errors.Is(err, station.ErrStationNotFound)
}
