package guidance

import (
	"fmt"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

// FormatTimeUntil renders the wait until target as "2h 5m", "3 hours" or
// "1 minute". Anything at or before now is "now".
func FormatTimeUntil(target, now time.Time) string {
	diff := target.Sub(now)
	if diff <= 0 {
		return "now"
	}

	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d %s", hours, plural(hours, "hour"))
	default:
		return fmt.Sprintf("%d %s", minutes, plural(minutes, "minute"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Turn is the next extreme and the one after it.
type Turn struct {
	Next  models.TideExtreme  `json:"next"`
	After *models.TideExtreme `json:"after,omitempty"`
}

// NextTurn orders the state's next high and low; nil when neither is known.
func NextTurn(state *models.TidalState) *Turn {
	if state == nil {
		return nil
	}

	high, low := state.NextHigh, state.NextLow
	switch {
	case high == nil && low == nil:
		return nil
	case high == nil:
		return &Turn{Next: *low}
	case low == nil:
		return &Turn{Next: *high}
	case low.Time.Before(high.Time):
		return &Turn{Next: *low, After: high}
	default:
		return &Turn{Next: *high, After: low}
	}
}

// Summary reads like "Low Water in 3h 12m".
func (t *Turn) Summary(now time.Time) string {
	label := Label(models.PhaseHighSlack)
	if t.Next.Type == models.TideTypeLow {
		label = Label(models.PhaseLowSlack)
	}
	return label + " in " + FormatTimeUntil(t.Next.Time, now)
}
