package tide

import (
	"context"
	"fmt"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/predictor"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

const DefaultTimelineFidelity = 600 * time.Second

// Service is the prediction façade: it resolves a station once, memoises the
// resulting predictor, and answers extremes, timeline and height queries.
type Service struct {
	resolver   *Resolver
	factory    predictor.Factory
	predictors *expirable.LRU[string, predictor.Predictor]
	extremes   ExtremesCacheProvider
	fidelity   time.Duration
}

var _ PredictionService = (*Service)(nil)

type ServiceOption func(*Service)

// WithPredictorFactory replaces the harmonic predictor.
func WithPredictorFactory(factory predictor.Factory) ServiceOption {
	return func(s *Service) {
		s.factory = factory
	}
}

// WithExtremesCache memoises extremes per station and range.
func WithExtremesCache(c ExtremesCacheProvider) ServiceOption {
	return func(s *Service) {
		s.extremes = c
	}
}

// WithDefaultFidelity sets the timeline step used when callers pass zero.
func WithDefaultFidelity(fidelity time.Duration) ServiceOption {
	return func(s *Service) {
		if fidelity > 0 {
			s.fidelity = fidelity
		}
	}
}

func NewService(stations StationLookup, cacheConfig *config.CacheConfig, opts ...ServiceOption) *Service {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	size := cacheConfig.PredictorLRUSize
	if size <= 0 {
		size = 1
	}

	s := &Service{
		resolver:   NewResolver(stations),
		factory:    predictor.HarmonicFactory,
		predictors: expirable.NewLRU[string, predictor.Predictor](size, nil, cacheConfig.GetPredictorLRUTTL()),
		fidelity:   DefaultTimelineFidelity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetExtremes(ctx context.Context, stationID string, start, end time.Time) ([]models.TideExtreme, error) {
	if end.Before(start) {
		return nil, NewInvalidRangeError(fmt.Sprintf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
	}

	if s.extremes != nil {
		cached, ok, err := s.extremes.GetExtremes(ctx, stationID, start, end)
		if err != nil {
			log.Warn().Err(err).Str("station_id", stationID).Msg("Extremes cache lookup failed")
		} else if ok {
			return cached, nil
		}
	}

	p, err := s.predictorFor(ctx, stationID)
	if err != nil {
		return nil, err
	}

	extremes, err := guard(stationID, "extremes", func() ([]models.TideExtreme, error) {
		return p.Extremes(start, end)
	})
	if err != nil {
		return nil, err
	}
	if extremes == nil {
		extremes = []models.TideExtreme{}
	}

	if s.extremes != nil {
		if err := s.extremes.SaveExtremes(ctx, stationID, start, end, extremes); err != nil {
			log.Warn().Err(err).Str("station_id", stationID).Msg("Failed to cache extremes")
		}
	}

	return extremes, nil
}

// GetTimeline samples the water level from start to end. A zero fidelity
// uses the service default.
func (s *Service) GetTimeline(ctx context.Context, stationID string, start, end time.Time, fidelity time.Duration) ([]models.TidePoint, error) {
	if end.Before(start) {
		return nil, NewInvalidRangeError(fmt.Sprintf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
	}
	if fidelity < 0 {
		return nil, NewInvalidRangeError(fmt.Sprintf("invalid fidelity %s", fidelity))
	}
	if fidelity == 0 {
		fidelity = s.fidelity
	}

	p, err := s.predictorFor(ctx, stationID)
	if err != nil {
		return nil, err
	}

	return guard(stationID, "timeline", func() ([]models.TidePoint, error) {
		return p.Timeline(start, end, fidelity)
	})
}

func (s *Service) GetHeightAt(ctx context.Context, stationID string, t time.Time) (float64, error) {
	p, err := s.predictorFor(ctx, stationID)
	if err != nil {
		return 0, err
	}

	return guard(stationID, "height", func() (float64, error) {
		return p.HeightAt(t)
	})
}

func (s *Service) predictorFor(ctx context.Context, stationID string) (predictor.Predictor, error) {
	if p, ok := s.predictors.Get(stationID); ok {
		return p, nil
	}

	resolution, err := s.resolver.Resolve(ctx, stationID)
	if err != nil {
		return nil, err
	}

	p, err := s.factory.New(resolution.ConstituentSource, resolution.Offsets)
	if err != nil {
		return nil, NewInvalidStationDataError(stationID, "building predictor", err)
	}

	s.predictors.Add(stationID, p)
	log.Debug().
		Str("station_id", stationID).
		Bool("subordinate", resolution.Offsets != nil).
		Msg("Built predictor")

	return p, nil
}

// guard runs a predictor call, turning errors and panics into a PredictionError.
func guard[T any](stationID, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPredictionError(stationID, operation, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = fn()
	if err != nil {
		return result, NewPredictionError(stationID, operation, err)
	}
	return result, nil
}
