package guidance

import (
	"math"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

// Ratios are the relative lengths of the four parts of a breath.
type Ratios struct {
	Inhale     int `json:"inhale"`
	HoldTop    int `json:"holdTop"`
	Exhale     int `json:"exhale"`
	HoldBottom int `json:"holdBottom"`
}

func (r Ratios) total() int {
	return r.Inhale + r.HoldTop + r.Exhale + r.HoldBottom
}

// RatiosFor lengthens the inhale on the flood and the exhale on the ebb.
func RatiosFor(phase models.TidalPhase) Ratios {
	switch phase {
	case models.PhaseRising:
		return Ratios{Inhale: 7, HoldTop: 2, Exhale: 5, HoldBottom: 2}
	case models.PhaseHighSlack:
		return Ratios{Inhale: 6, HoldTop: 3, Exhale: 6, HoldBottom: 1}
	case models.PhaseFalling:
		return Ratios{Inhale: 5, HoldTop: 2, Exhale: 7, HoldBottom: 2}
	case models.PhaseLowSlack:
		return Ratios{Inhale: 5, HoldTop: 1, Exhale: 5, HoldBottom: 3}
	}
	return Ratios{Inhale: 1, HoldTop: 1, Exhale: 1, HoldBottom: 1}
}

// Timings splits one breath cycle into its parts. The *Secs fields are
// rounded whole seconds for countdown display.
type Timings struct {
	Inhale     time.Duration `json:"inhale"`
	HoldTop    time.Duration `json:"holdTop"`
	Exhale     time.Duration `json:"exhale"`
	HoldBottom time.Duration `json:"holdBottom"`

	InhaleSecs     int `json:"inhaleSecs"`
	HoldTopSecs    int `json:"holdTopSecs"`
	ExhaleSecs     int `json:"exhaleSecs"`
	HoldBottomSecs int `json:"holdBottomSecs"`
}

func BreathTimings(phase models.TidalPhase, cycle time.Duration) Timings {
	r := RatiosFor(phase)
	part := float64(cycle) / float64(r.total())

	t := Timings{
		Inhale:     time.Duration(float64(r.Inhale) * part),
		HoldTop:    time.Duration(float64(r.HoldTop) * part),
		Exhale:     time.Duration(float64(r.Exhale) * part),
		HoldBottom: time.Duration(float64(r.HoldBottom) * part),
	}
	t.InhaleSecs = roundSeconds(t.Inhale)
	t.HoldTopSecs = roundSeconds(t.HoldTop)
	t.ExhaleSecs = roundSeconds(t.Exhale)
	t.HoldBottomSecs = roundSeconds(t.HoldBottom)
	return t
}

func roundSeconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}
