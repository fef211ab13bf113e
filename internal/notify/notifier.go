package notify

import (
	"context"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const Title = "Tide Resonance"

// Alert announces an upcoming extreme.
type Alert struct {
	ID          string          `json:"id"`
	StationID   string          `json:"stationId"`
	StationName string          `json:"stationName"`
	Type        models.TideType `json:"type"`
	ExtremeTime time.Time       `json:"extremeTime"`
	FireAt      time.Time       `json:"fireAt"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
}

type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

type NotifierFunc func(ctx context.Context, alert Alert) error

func (f NotifierFunc) Notify(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// LogNotifier delivers alerts to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, alert Alert) error {
	log.Info().
		Str("alert_id", alert.ID).
		Str("station_id", alert.StationID).
		Str("type", string(alert.Type)).
		Time("extreme_time", alert.ExtremeTime).
		Msg(alert.Body)
	return nil
}
