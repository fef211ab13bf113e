// Package notify schedules alerts ahead of the next high and low water.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/guidance"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/refresh"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	alertTag      = "tide-alert"
	deliveryLimit = 10 * time.Second
)

type Settings struct {
	Enabled bool
	Lead    time.Duration
	High    bool
	Low     bool
}

// SettingsFromConfig reads the alert options of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Enabled: cfg.AlertsEnabled,
		Lead:    cfg.AlertLeadTime,
		High:    cfg.AlertHigh,
		Low:     cfg.AlertLow,
	}
}

// Plan lists the alerts for state that are still in the future at now.
func Plan(state *models.TidalState, settings Settings, now time.Time) []Alert {
	if !settings.Enabled || state == nil {
		return nil
	}

	var alerts []Alert
	add := func(extreme *models.TideExtreme, phase models.TidalPhase) {
		if extreme == nil {
			return
		}
		fireAt := extreme.Time.Add(-settings.Lead)
		if !fireAt.After(now) {
			return
		}
		alerts = append(alerts, Alert{
			ID:          uuid.NewString(),
			StationID:   state.Station.ID,
			StationName: state.Station.Name,
			Type:        extreme.Type,
			ExtremeTime: extreme.Time,
			FireAt:      fireAt,
			Title:       Title,
			Body: fmt.Sprintf("%s in %d minutes at %s",
				guidance.Label(phase), int(settings.Lead/time.Minute), state.Station.Name),
		})
	}

	if settings.High {
		add(state.NextHigh, models.PhaseHighSlack)
	}
	if settings.Low {
		add(state.NextLow, models.PhaseLowSlack)
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].FireAt.Before(alerts[j].FireAt) })
	return alerts
}

// Scheduler keeps one set of pending alerts, replaced on every new state.
type Scheduler struct {
	notifier Notifier
	settings Settings
	now      func() time.Time

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	pending   map[string]Alert
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func NewScheduler(notifier Notifier, settings Settings, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier:  notifier,
		settings:  settings,
		now:       time.Now,
		scheduler: gocron.NewScheduler(time.UTC),
		pending:   make(map[string]Alert),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scheduler.StartAsync()
	return s
}

// Schedule replaces all pending alerts with those planned for state.
func (s *Scheduler) Schedule(state *models.TidalState) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()

	alerts := Plan(state, s.settings, s.now())
	for _, alert := range alerts {
		alert := alert
		_, err := s.scheduler.Every(24 * time.Hour).
			StartAt(alert.FireAt).
			LimitRunsTo(1).
			Tag(alertTag, alert.ID).
			Do(func() { s.deliver(alert) })
		if err != nil {
			s.clearLocked()
			return nil, fmt.Errorf("scheduling alert for %s: %w", alert.StationID, err)
		}
		s.pending[alert.ID] = alert
	}

	if len(alerts) > 0 {
		log.Debug().
			Str("station_id", state.Station.ID).
			Int("alerts", len(alerts)).
			Msg("Scheduled tide alerts")
	}
	return alerts, nil
}

// Pending returns the alerts not yet delivered, soonest first.
func (s *Scheduler) Pending() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]Alert, 0, len(s.pending))
	for _, a := range s.pending {
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].FireAt.Before(alerts[j].FireAt) })
	return alerts
}

// Clear cancels all pending alerts.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Scheduler) Stop() {
	s.Clear()
	s.scheduler.Stop()
}

// Follow schedules alerts from every ready snapshot until updates closes or
// ctx is done. An idle controller clears them.
func (s *Scheduler) Follow(ctx context.Context, updates <-chan refresh.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			switch snap.Status {
			case refresh.StatusReady:
				if _, err := s.Schedule(snap.State); err != nil {
					log.Error().Err(err).Msg("Failed to schedule tide alerts")
				}
			case refresh.StatusIdle:
				s.Clear()
			}
		}
	}
}

func (s *Scheduler) clearLocked() {
	if len(s.pending) == 0 {
		return
	}
	// ErrJobNotFoundWithTag only means every alert already fired
	_ = s.scheduler.RemoveByTag(alertTag)
	clear(s.pending)
}

func (s *Scheduler) deliver(alert Alert) {
	s.mu.Lock()
	_, ok := s.pending[alert.ID]
	delete(s.pending, alert.ID)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryLimit)
	defer cancel()
	if err := s.notifier.Notify(ctx, alert); err != nil {
		log.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to deliver tide alert")
	}
}
