// Package guidance maps tidal phases to session guidance, breath pacing and
// short narrative text.
package guidance

import "github.com/bbernstein/tideresonance/backend-go/internal/models"

// Guidance is the practitioner-facing description of a phase.
type Guidance struct {
	Phase            models.TidalPhase `json:"phase"`
	Arrow            string            `json:"arrow"`
	Label            string            `json:"label"`
	Qualities        string            `json:"qualities"`
	Description      string            `json:"description"`
	Suggestions      []string          `json:"suggestions"`
	Instruments      string            `json:"instruments"`
	NextPhasePreview string            `json:"nextPhasePreview"`
}

func Label(phase models.TidalPhase) string {
	switch phase {
	case models.PhaseRising:
		return "Rising Tide"
	case models.PhaseHighSlack:
		return "High Water"
	case models.PhaseFalling:
		return "Ebbing Tide"
	case models.PhaseLowSlack:
		return "Low Water"
	}
	return ""
}

func Arrow(phase models.TidalPhase) string {
	switch phase {
	case models.PhaseRising:
		return "↑"
	case models.PhaseHighSlack:
		return "◆"
	case models.PhaseFalling:
		return "↓"
	case models.PhaseLowSlack:
		return "◇"
	}
	return ""
}

// NextPhase is the phase that follows in the tidal cycle.
func NextPhase(phase models.TidalPhase) models.TidalPhase {
	switch phase {
	case models.PhaseRising:
		return models.PhaseHighSlack
	case models.PhaseHighSlack:
		return models.PhaseFalling
	case models.PhaseFalling:
		return models.PhaseLowSlack
	case models.PhaseLowSlack:
		return models.PhaseRising
	}
	return phase
}

// For returns the guidance for phase; ok is false for an unknown phase.
func For(phase models.TidalPhase) (g Guidance, ok bool) {
	switch phase {
	case models.PhaseRising:
		g = Guidance{
			Qualities:   "Building · Expansion · Growth",
			Description: "The rising tide builds energy naturally. Sessions during this phase benefit from gradually increasing intensity.",
			Suggestions: []string{
				"Sound journeys that build from soft to powerful",
				"Intention-setting ceremonies and manifestation work",
				"Energising breathwork with progressively deeper breaths",
			},
			Instruments: "Gongs (building crescendos), drums, didgeridoo",
		}
	case models.PhaseHighSlack:
		g = Guidance{
			Qualities:   "Fullness · Peak Energy · Culmination",
			Description: "The tide has reached its peak. This brief window of stillness at maximum energy is powerful for peak experiences.",
			Suggestions: []string{
				"Full immersive sound baths at maximum resonance",
				"Group toning and harmonic chanting",
				"Holding space for peak emotional release",
			},
			Instruments: "Full gong wash, crystal bowls (sustained), voice",
		}
	case models.PhaseFalling:
		g = Guidance{
			Qualities:   "Release · Letting Go · Cleansing",
			Description: "The ebbing tide carries a natural quality of release. This is an ideal time for clearing and dissolving.",
			Suggestions: []string{
				"Sound baths focused on releasing tension and stagnant energy",
				"Breathwork for emotional release and cleansing",
				"Gradually softening sound to guide clients into surrender",
			},
			Instruments: "Singing bowls (descending patterns), ocean drum, rain stick",
		}
	case models.PhaseLowSlack:
		g = Guidance{
			Qualities:   "Stillness · The Void · Integration",
			Description: "The tide rests at its lowest point. This is the ocean's pause, a window of profound silence and integration.",
			Suggestions: []string{
				"Silence-based meditation and deep listening",
				"Integration work after intense sessions",
				"Minimal sound: single sustained tones, long pauses",
			},
			Instruments: "Monochord, shruti box (sustained drone), silence",
		}
	default:
		return Guidance{}, false
	}

	g.Phase = phase
	g.Arrow = Arrow(phase)
	g.Label = Label(phase)
	g.NextPhasePreview = preview(NextPhase(phase))
	return g, true
}

func preview(phase models.TidalPhase) string {
	switch phase {
	case models.PhaseRising:
		return Label(phase) + ": new cycle of building energy"
	case models.PhaseHighSlack:
		return Label(phase) + ": peak fullness, culmination"
	case models.PhaseFalling:
		return Label(phase) + ": release, letting go"
	case models.PhaseLowSlack:
		return Label(phase) + ": deep stillness, integration"
	}
	return ""
}
