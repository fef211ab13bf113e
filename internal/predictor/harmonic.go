package predictor

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

// Extremes are located on a grid this fine before parabolic refinement.
const extremesGrid = time.Minute

var ErrNoConstituents = errors.New("no harmonic constituents")

type component struct {
	name      string
	amplitude float64
	phaseDeg  float64
	speedDeg  float64 // degrees per hour
}

// Harmonic predicts water level as a sum of cosines
//
//	h(t) = Z0 + Σ A·cos(ω·Δt − φ)
//
// with Δt in hours since the Unix epoch. Nodal corrections are not applied.
// Subordinate offsets are folded into the level function itself so extremes,
// timelines and point heights all agree.
type Harmonic struct {
	components []component
	mean       float64
	span       float64
	offsets    *models.StationOffsets
}

var _ Predictor = (*Harmonic)(nil)

func NewHarmonic(constituents []models.HarmonicConstituent, offsets *models.StationOffsets) (*Harmonic, error) {
	if len(constituents) == 0 {
		return nil, ErrNoConstituents
	}

	h := &Harmonic{offsets: offsets}
	for _, c := range constituents {
		if !isFinite(c.Amplitude) || !isFinite(c.Phase) || !isFinite(c.Speed) {
			return nil, fmt.Errorf("constituent %s has non-finite values", c.Name)
		}

		speed := c.Speed
		if speed == 0 {
			known, ok := ConstituentSpeed(c.Name)
			if !ok {
				return nil, fmt.Errorf("unknown constituent %q without speed", c.Name)
			}
			speed = known
		}

		if speed == 0 || strings.EqualFold(c.Name, "Z0") {
			h.mean += c.Amplitude * math.Cos(deg2rad(c.Phase))
			continue
		}

		h.components = append(h.components, component{
			name:      c.Name,
			amplitude: c.Amplitude,
			phaseDeg:  c.Phase,
			speedDeg:  speed,
		})
		h.span += math.Abs(c.Amplitude)
	}

	return h, nil
}

func (h *Harmonic) HeightAt(t time.Time) (float64, error) {
	return h.level(t), nil
}

func (h *Harmonic) Timeline(start, end time.Time, step time.Duration) ([]models.TidePoint, error) {
	if step <= 0 {
		return nil, fmt.Errorf("invalid timeline step: %s", step)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s", end, start)
	}

	points := make([]models.TidePoint, 0, int(end.Sub(start)/step)+2)
	for t := start; t.Before(end); t = t.Add(step) {
		points = append(points, models.TidePoint{Time: t, Height: h.level(t)})
	}
	points = append(points, models.TidePoint{Time: end, Height: h.level(end)})

	return points, nil
}

func (h *Harmonic) Extremes(start, end time.Time) ([]models.TideExtreme, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s", end, start)
	}

	// one grid step either side so extremes sitting on the range edges are seen
	from := start.Add(-extremesGrid)
	n := int(end.Add(extremesGrid).Sub(from)/extremesGrid) + 1

	levels := make([]float64, n)
	for i := range levels {
		levels[i] = h.level(from.Add(time.Duration(i) * extremesGrid))
	}

	extremes := make([]models.TideExtreme, 0)
	for i := 1; i < n-1; i++ {
		prev, curr, next := levels[i-1], levels[i], levels[i+1]

		var tideType models.TideType
		switch {
		case prev < curr && curr >= next:
			tideType = models.TideTypeHigh
		case prev > curr && curr <= next:
			tideType = models.TideTypeLow
		default:
			continue
		}

		t, height := refine(from.Add(time.Duration(i)*extremesGrid), prev, curr, next)
		if t.Before(start) || t.After(end) {
			continue
		}

		extreme := models.TideExtreme{Time: t, Height: height, Type: tideType}

		// keep the list alternating: of two same-type neighbours keep the more extreme
		if last := len(extremes) - 1; last >= 0 && extremes[last].Type == tideType {
			if moreExtreme(extreme, extremes[last]) {
				extremes[last] = extreme
			}
			continue
		}
		extremes = append(extremes, extreme)
	}

	return extremes, nil
}

// reference is the undisturbed harmonic sum.
func (h *Harmonic) reference(t time.Time) float64 {
	hours := float64(t.UnixNano()) / float64(time.Hour)
	sum := h.mean
	for _, c := range h.components {
		angle := math.Mod(c.speedDeg*hours, 360) - c.phaseDeg
		sum += c.amplitude * math.Cos(deg2rad(angle))
	}
	return sum
}

func (h *Harmonic) level(t time.Time) float64 {
	if h.offsets == nil {
		return h.reference(t)
	}
	off := h.offsets

	w := h.weight(h.reference(t))
	shiftMinutes := off.Time.Low + w*(off.Time.High-off.Time.Low)
	ref := h.reference(t.Add(-time.Duration(shiftMinutes * float64(time.Minute))))

	w = h.weight(ref)
	switch off.Height.Type {
	case models.HeightOffsetRatio:
		if off.Height.High == 0 && off.Height.Low == 0 {
			return ref
		}
		return ref * (off.Height.Low + w*(off.Height.High-off.Height.Low))
	default:
		return ref + off.Height.Low + w*(off.Height.High-off.Height.Low)
	}
}

// weight maps a reference level to 0 at the lowest possible low water and 1 at
// the highest possible high water.
func (h *Harmonic) weight(level float64) float64 {
	if h.span == 0 {
		return 0.5
	}
	w := (level - (h.mean - h.span)) / (2 * h.span)
	return math.Max(0, math.Min(1, w))
}

// refine fits a parabola through three grid samples one step apart and returns
// its vertex, or the middle sample when the fit is degenerate.
func refine(t time.Time, h0, h1, h2 float64) (time.Time, float64) {
	a := (h2 - 2*h1 + h0) / 2
	b := (h2 - h0) / 2
	if math.Abs(a) < 1e-12 {
		return t, h1
	}

	x := -b / (2 * a)
	if math.Abs(x) > 1 {
		return t, h1
	}

	return t.Add(time.Duration(x * float64(extremesGrid))), h1 + b*x + a*x*x
}

func moreExtreme(candidate, current models.TideExtreme) bool {
	if candidate.Type == models.TideTypeHigh {
		return candidate.Height > current.Height
	}
	return candidate.Height < current.Height
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
