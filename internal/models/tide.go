package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type TideType string

const (
	TideTypeHigh TideType = "high"
	TideTypeLow  TideType = "low"
)

// TideExtreme represents a high or low tide
type TideExtreme struct {
	Time   time.Time `json:"time"`
	Height float64   `json:"height"`
	Type   TideType  `json:"type"`
}

// TidePoint is a single sample of the continuous water level
type TidePoint struct {
	Time   time.Time `json:"time"`
	Height float64   `json:"height"`
}

// TidalPhase is one of four mutually exclusive states of the tide.
type TidalPhase int

const (
	PhaseRising TidalPhase = iota
	PhaseHighSlack
	PhaseFalling
	PhaseLowSlack
)

// Phases lists every phase in cycle order starting from the flood.
var Phases = []TidalPhase{PhaseRising, PhaseHighSlack, PhaseFalling, PhaseLowSlack}

func (p TidalPhase) String() string {
	switch p {
	case PhaseRising:
		return "RISING"
	case PhaseHighSlack:
		return "HIGH_SLACK"
	case PhaseFalling:
		return "FALLING"
	case PhaseLowSlack:
		return "LOW_SLACK"
	}
	return fmt.Sprintf("TidalPhase(%d)", int(p))
}

func (p TidalPhase) Valid() bool {
	return p >= PhaseRising && p <= PhaseLowSlack
}

// ParseTidalPhase accepts the names produced by String.
func ParseTidalPhase(s string) (TidalPhase, error) {
	for _, p := range Phases {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid tidal phase: %s", s)
}

func (p TidalPhase) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid tidal phase: %d", int(p))
	}
	return json.Marshal(p.String())
}

func (p *TidalPhase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTidalPhase(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TidalState is a complete snapshot of the tide at a station for one instant.
// It is rebuilt on every refresh and never mutated afterwards.
type TidalState struct {
	Station       TideStation   `json:"station"`
	DistanceKm    float64       `json:"distanceKm"`
	ComputedAt    time.Time     `json:"computedAt"`
	CurrentHeight float64       `json:"currentHeight"`
	CurrentPhase  TidalPhase    `json:"currentPhase"`
	PhaseProgress float64       `json:"phaseProgress"`
	RateOfChange  float64       `json:"rateOfChange"` // metres per hour
	NextHigh      *TideExtreme  `json:"nextHigh"`
	NextLow       *TideExtreme  `json:"nextLow"`
	PreviousHigh  *TideExtreme  `json:"previousHigh"`
	PreviousLow   *TideExtreme  `json:"previousLow"`
	Extremes24h   []TideExtreme `json:"extremes24h"`
	Timeline24h   []TidePoint   `json:"timeline24h"`
}

// Summary returns a copy whose station carries no prediction payload.
// The receiver is left untouched since snapshots are shared.
func (s *TidalState) Summary() *TidalState {
	if s == nil {
		return nil
	}
	out := *s
	out.Station = s.Station.Summary()
	return &out
}

// Validate checks if a TideExtreme's fields are valid
func (te *TideExtreme) Validate() error {
	if te.Time.IsZero() {
		return fmt.Errorf("extreme time is required")
	}

	switch te.Type {
	case TideTypeHigh, TideTypeLow:
	default:
		return fmt.Errorf("invalid tide type: %s", te.Type)
	}

	return nil
}

// ValidateExtremes checks ordering and alternation of an extremes list.
func ValidateExtremes(extremes []TideExtreme) error {
	for i := range extremes {
		if err := extremes[i].Validate(); err != nil {
			return fmt.Errorf("invalid extreme at index %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		if extremes[i].Time.Before(extremes[i-1].Time) {
			return fmt.Errorf("extremes out of order at index %d", i)
		}
		if extremes[i].Type == extremes[i-1].Type {
			return fmt.Errorf("consecutive %s extremes at index %d", extremes[i].Type, i)
		}
	}
	return nil
}

// Validate checks the snapshot's internal consistency against ComputedAt.
func (s *TidalState) Validate() error {
	if err := s.Station.Validate(); err != nil {
		return fmt.Errorf("invalid station: %w", err)
	}

	if s.DistanceKm < 0 {
		return fmt.Errorf("invalid station distance: %f", s.DistanceKm)
	}

	if !s.CurrentPhase.Valid() {
		return fmt.Errorf("invalid phase: %d", int(s.CurrentPhase))
	}

	if s.PhaseProgress < 0 || s.PhaseProgress > 1 {
		return fmt.Errorf("invalid phase progress: %f", s.PhaseProgress)
	}

	now := s.ComputedAt
	if s.PreviousHigh != nil && s.PreviousHigh.Time.After(now) {
		return fmt.Errorf("previous high is in the future")
	}
	if s.PreviousLow != nil && s.PreviousLow.Time.After(now) {
		return fmt.Errorf("previous low is in the future")
	}
	if s.NextHigh != nil && !s.NextHigh.Time.After(now) {
		return fmt.Errorf("next high is not in the future")
	}
	if s.NextLow != nil && !s.NextLow.Time.After(now) {
		return fmt.Errorf("next low is not in the future")
	}

	for i := 1; i < len(s.Timeline24h); i++ {
		if !s.Timeline24h[i].Time.After(s.Timeline24h[i-1].Time) {
			return fmt.Errorf("timeline out of order at index %d", i)
		}
	}

	return ValidateExtremes(s.Extremes24h)
}
