package models

import (
	"fmt"
	"time"
)

type StationType string

const (
	StationTypeReference   StationType = "reference"
	StationTypeSubordinate StationType = "subordinate"
)

type HeightOffsetType string

const (
	HeightOffsetRatio HeightOffsetType = "ratio"
	HeightOffsetFixed HeightOffsetType = "fixed"
)

// HarmonicConstituent is one periodic component of a reference station's prediction.
// Speed is in degrees per hour; zero means "look it up by name".
type HarmonicConstituent struct {
	Name      string  `json:"name"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
	Speed     float64 `json:"speed,omitempty"`
}

// HeightOffsets transforms reference heights at high and low water.
type HeightOffsets struct {
	High float64          `json:"high"`
	Low  float64          `json:"low"`
	Type HeightOffsetType `json:"type"`
}

// TimeOffsets shifts reference times at high and low water, in minutes.
type TimeOffsets struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// StationOffsets describes a subordinate station relative to its reference station
type StationOffsets struct {
	Reference string        `json:"reference"`
	Height    HeightOffsets `json:"height"`
	Time      TimeOffsets   `json:"time"`
}

type TideStation struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Latitude     float64               `json:"latitude"`
	Longitude    float64               `json:"longitude"`
	Country      string                `json:"country"`
	Continent    string                `json:"continent"`
	Timezone     string                `json:"timezone"`
	Type         StationType           `json:"type"`
	Constituents []HarmonicConstituent `json:"harmonicConstituents,omitempty"`
	Offsets      *StationOffsets       `json:"offsets,omitempty"`
}

// StationMatch pairs a station with its distance from a query point.
type StationMatch struct {
	Station    TideStation `json:"station"`
	DistanceKm float64     `json:"distanceKm"`
}

func (s TideStation) IsSubordinate() bool {
	return s.Type == StationTypeSubordinate
}

// Location returns the station's timezone, falling back to UTC when the
// identifier is empty or unknown to the tz database.
func (s TideStation) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Summary strips the harmonic constituents and subordinate offsets.
func (s TideStation) Summary() TideStation {
	s.Constituents = nil
	s.Offsets = nil
	return s
}

// Validate checks if a TideStation's fields are valid
func (s *TideStation) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("station ID is required")
	}

	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", s.Latitude)
	}

	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", s.Longitude)
	}

	switch s.Type {
	case StationTypeReference:
		if len(s.Constituents) == 0 {
			return fmt.Errorf("reference station %s has no harmonic constituents", s.ID)
		}
	case StationTypeSubordinate:
		// offsets are checked by the resolver so a broken record still shows up in search
	default:
		return fmt.Errorf("invalid station type: %s", s.Type)
	}

	if s.Offsets != nil {
		switch s.Offsets.Height.Type {
		case HeightOffsetRatio, HeightOffsetFixed, "":
		default:
			return fmt.Errorf("invalid height offset type: %s", s.Offsets.Height.Type)
		}
	}

	return nil
}
