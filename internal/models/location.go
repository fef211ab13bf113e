package models

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

type LocationSource string

const (
	LocationSourceDevice   LocationSource = "device"
	LocationSourceFallback LocationSource = "fallback"
	LocationSourceManual   LocationSource = "manual"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeoLocation is the point a tidal state is computed for.
type GeoLocation struct {
	Latitude  float64        `json:"latitude" validate:"latitude"`
	Longitude float64        `json:"longitude" validate:"longitude"`
	Source    LocationSource `json:"source" validate:"oneof=device fallback manual"`
	Label     string         `json:"label,omitempty" validate:"max=120"`
}

// Key identifies the location; any change of latitude or longitude yields a new key.
func (l GeoLocation) Key() string {
	return strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

func (l *GeoLocation) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}
	return nil
}
