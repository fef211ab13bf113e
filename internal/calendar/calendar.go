// Package calendar groups a week of tide extremes by local day.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

const Days = 7

type Day struct {
	Date     time.Time            `json:"date"`
	IsToday  bool                 `json:"isToday"`
	Label    string               `json:"label"`
	Extremes []models.TideExtreme `json:"extremes"`
}

type Week struct {
	StationID string `json:"stationId"`
	Timezone  string `json:"timezone"`
	Days      []Day  `json:"days"`
}

// Key identifies the local calendar date of d.
func (d Day) Key() string {
	return d.Date.Format(time.DateOnly)
}

// dayLabel is "Today" or a short date such as "Tue 11 Mar".
func dayLabel(date time.Time, isToday bool) string {
	if isToday {
		return "Today"
	}
	return date.Format("Mon 2 Jan")
}

// ForWeek returns Days consecutive days starting today in the station's
// timezone. Each day holds the extremes falling on that local date.
func ForWeek(ctx context.Context, predictions tide.PredictionService, station models.TideStation, now time.Time) (*Week, error) {
	loc := station.Location()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := today.AddDate(0, 0, Days).Add(-time.Millisecond)

	extremes, err := predictions.GetExtremes(ctx, station.ID, today, end)
	if err != nil {
		return nil, fmt.Errorf("getting week of extremes for %s: %w", station.ID, err)
	}

	week := &Week{
		StationID: station.ID,
		Timezone:  loc.String(),
		Days:      make([]Day, Days),
	}
	index := make(map[string]int, Days)
	for i := range week.Days {
		date := today.AddDate(0, 0, i)
		week.Days[i] = Day{
			Date:     date,
			IsToday:  i == 0,
			Label:    dayLabel(date, i == 0),
			Extremes: []models.TideExtreme{},
		}
		index[week.Days[i].Key()] = i
	}

	for _, e := range extremes {
		i, ok := index[e.Time.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		week.Days[i].Extremes = append(week.Days[i].Extremes, e)
	}

	log.Debug().
		Str("station_id", station.ID).
		Int("extremes", len(extremes)).
		Msg("Built tide calendar")

	return week, nil
}
