package tide

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	// SlackThreshold is the fraction of a half-cycle at each end counted as slack water.
	SlackThreshold = 0.05

	// RateLookback is how far back the rate of change is measured.
	RateLookback = 10 * time.Minute

	tracerName = "github.com/bbernstein/tideresonance/backend-go/internal/tide"
)

// Compositor assembles a TidalState from the prediction façade.
type Compositor struct {
	predictions PredictionService
	tracer      trace.Tracer
}

var _ StateComputer = (*Compositor)(nil)

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithTracerProvider sets the provider spans are recorded on. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) CompositorOption {
	return func(c *Compositor) {
		c.tracer = tp.Tracer(tracerName)
	}
}

func NewCompositor(predictions PredictionService, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		predictions: predictions,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Windows are the day boundaries a TidalState is computed over, in the
// station's timezone. Ends are one millisecond before the next midnight.
type Windows struct {
	TodayStart     time.Time
	TodayEnd       time.Time
	YesterdayStart time.Time
	TomorrowEnd    time.Time
}

func DayWindows(now time.Time, loc *time.Location) Windows {
	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Windows{
		TodayStart:     todayStart,
		TodayEnd:       todayStart.AddDate(0, 0, 1).Add(-time.Millisecond),
		YesterdayStart: todayStart.AddDate(0, 0, -1),
		TomorrowEnd:    todayStart.AddDate(0, 0, 2).Add(-time.Millisecond),
	}
}

// Compute builds the tidal state for station at now. Extremes, timeline and
// current height are fetched concurrently and any of them failing fails the
// call; the rate of change falls back to zero.
func (c *Compositor) Compute(ctx context.Context, station models.TideStation, distanceKm float64, now time.Time) (*models.TidalState, error) {
	ctx, span := c.tracer.Start(ctx, "tide.Compute", trace.WithAttributes(
		attribute.String("station_id", station.ID),
		attribute.Float64("distance_km", distanceKm),
	))
	defer span.End()

	start := time.Now()
	w := DayWindows(now, station.Location())

	var (
		extremes48h   []models.TideExtreme
		timeline      []models.TidePoint
		currentHeight float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		extremes48h, err = c.predictions.GetExtremes(gctx, station.ID, w.YesterdayStart, w.TomorrowEnd)
		return err
	})
	g.Go(func() error {
		var err error
		timeline, err = c.predictions.GetTimeline(gctx, station.ID, w.TodayStart, w.TodayEnd, 0)
		return err
	})
	g.Go(func() error {
		var err error
		currentHeight, err = c.predictions.GetHeightAt(gctx, station.ID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary fetch failed")
		return nil, fmt.Errorf("computing tidal state for %s: %w", station.ID, err)
	}

	extremes24h := make([]models.TideExtreme, 0, len(extremes48h))
	past := make([]models.TideExtreme, 0, len(extremes48h))
	future := make([]models.TideExtreme, 0, len(extremes48h))
	for _, e := range extremes48h {
		if !e.Time.Before(w.TodayStart) && !e.Time.After(w.TodayEnd) {
			extremes24h = append(extremes24h, e)
		}
		if e.Time.After(now) {
			future = append(future, e)
		} else {
			past = append(past, e)
		}
	}
	sort.SliceStable(past, func(i, j int) bool { return past[i].Time.After(past[j].Time) })
	sort.SliceStable(future, func(i, j int) bool { return future[i].Time.Before(future[j].Time) })

	var last, next *models.TideExtreme
	if len(past) > 0 {
		last = &past[0]
	}
	if len(future) > 0 {
		next = &future[0]
	}
	phase, progress := ClassifyPhase(last, next, now)

	state := &models.TidalState{
		Station:       station,
		DistanceKm:    distanceKm,
		ComputedAt:    now,
		CurrentHeight: currentHeight,
		CurrentPhase:  phase,
		PhaseProgress: progress,
		RateOfChange:  c.rateOfChange(ctx, station.ID, currentHeight, now),
		NextHigh:      firstOfType(future, models.TideTypeHigh),
		NextLow:       firstOfType(future, models.TideTypeLow),
		PreviousHigh:  firstOfType(past, models.TideTypeHigh),
		PreviousLow:   firstOfType(past, models.TideTypeLow),
		Extremes24h:   extremes24h,
		Timeline24h:   timeline,
	}

	span.SetAttributes(
		attribute.String("phase", phase.String()),
		attribute.Float64("phase_progress", progress),
	)
	log.Debug().
		Str("station_id", station.ID).
		Str("phase", phase.String()).
		Float64("progress", progress).
		Dur("duration", time.Since(start)).
		Msg("Computed tidal state")

	return state, nil
}

func (c *Compositor) rateOfChange(ctx context.Context, stationID string, currentHeight float64, now time.Time) float64 {
	earlier, err := c.predictions.GetHeightAt(ctx, stationID, now.Add(-RateLookback))
	if err != nil {
		log.Debug().Err(err).Str("station_id", stationID).Msg("Rate of change unavailable")
		return 0
	}
	return (currentHeight - earlier) * float64(time.Hour/RateLookback)
}

// ClassifyPhase places now within the half-cycle from last to next.
//
// Progress below SlackThreshold or above 1-SlackThreshold is slack water at
// the nearer extreme; both bounds are strict, so exactly 0.05 and 0.95 belong
// to the rising or falling phase. Without both extremes the result is
// PhaseRising with zero progress.
func ClassifyPhase(last, next *models.TideExtreme, now time.Time) (models.TidalPhase, float64) {
	if last == nil || next == nil {
		return models.PhaseRising, 0
	}

	progress := 0.0
	if duration := next.Time.Sub(last.Time); duration > 0 {
		progress = float64(now.Sub(last.Time)) / float64(duration)
		progress = math.Max(0, math.Min(progress, 1))
	}

	if last.Type == models.TideTypeLow && next.Type == models.TideTypeHigh {
		switch {
		case progress < SlackThreshold:
			return models.PhaseLowSlack, progress
		case progress > 1-SlackThreshold:
			return models.PhaseHighSlack, progress
		default:
			return models.PhaseRising, progress
		}
	}

	switch {
	case progress < SlackThreshold:
		return models.PhaseHighSlack, progress
	case progress > 1-SlackThreshold:
		return models.PhaseLowSlack, progress
	default:
		return models.PhaseFalling, progress
	}
}

func firstOfType(extremes []models.TideExtreme, tideType models.TideType) *models.TideExtreme {
	for _, e := range extremes {
		if e.Type == tideType {
			found := e
			return &found
		}
	}
	return nil
}
