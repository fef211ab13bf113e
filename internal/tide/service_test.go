package tide

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/cache"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCacheConfig = &config.CacheConfig{
	PredictorLRUSize:       16,
	PredictorLRUTTLMinutes: 60,
	ExtremesLRUSize:        16,
	ExtremesLRUTTLMinutes:  15,
	EnableLRUCache:         true,
}

func testDirectory() stationMap {
	return stationMap{
		"whitby":   referenceStation("whitby"),
		"sandsend": subordinateStation("sandsend", "whitby"),
		"lost":     subordinateStation("lost", "atlantis"),
	}
}

// panicPredictor blows up on every call.
type panicPredictor struct{}

func (panicPredictor) Extremes(time.Time, time.Time) ([]models.TideExtreme, error) {
	panic("malformed constituents")
}

func (panicPredictor) Timeline(time.Time, time.Time, time.Duration) ([]models.TidePoint, error) {
	return nil, errors.New("timeline unavailable")
}

func (panicPredictor) HeightAt(time.Time) (float64, error) {
	return 0, errors.New("height unavailable")
}

func TestService_GetExtremes(t *testing.T) {
	svc := NewService(testDirectory(), testCacheConfig)
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48*time.Hour - time.Millisecond)

	for _, id := range []string{"whitby", "sandsend"} {
		t.Run(id, func(t *testing.T) {
			extremes, err := svc.GetExtremes(ctx, id, start, end)
			require.NoError(t, err)
			require.NotEmpty(t, extremes)
			require.NoError(t, models.ValidateExtremes(extremes))
			for _, e := range extremes {
				assert.False(t, e.Time.Before(start))
				assert.False(t, e.Time.After(end))
			}
		})
	}

	t.Run("subordinate extremes follow the reference by the time offset", func(t *testing.T) {
		ref, err := svc.GetExtremes(ctx, "whitby", start, end)
		require.NoError(t, err)
		sub, err := svc.GetExtremes(ctx, "sandsend", start.Add(20*time.Minute), end.Add(20*time.Minute))
		require.NoError(t, err)
		require.Equal(t, len(ref), len(sub))
		for i := range ref {
			assert.InDelta(t, float64(20*time.Minute), float64(sub[i].Time.Sub(ref[i].Time)), float64(time.Second))
			assert.InDelta(t, ref[i].Height*0.9, sub[i].Height, 1e-6)
		}
	})

	t.Run("empty range yields empty slice", func(t *testing.T) {
		extremes, err := svc.GetExtremes(ctx, "whitby", start, start.Add(time.Minute))
		require.NoError(t, err)
		assert.NotNil(t, extremes)
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := svc.GetExtremes(ctx, "whitby", end, start)
		var rangeErr *InvalidRangeError
		assert.True(t, errors.As(err, &rangeErr))
	})

	t.Run("unknown station", func(t *testing.T) {
		_, err := svc.GetExtremes(ctx, "nowhere", start, end)
		assert.True(t, IsNotFound(err))
	})

	t.Run("broken subordinate", func(t *testing.T) {
		_, err := svc.GetExtremes(ctx, "lost", start, end)
		var invalid *InvalidStationDataError
		assert.True(t, errors.As(err, &invalid))
	})
}

func TestService_TimelineAndHeightAgree(t *testing.T) {
	svc := NewService(testDirectory(), testCacheConfig)
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)

	for _, id := range []string{"whitby", "sandsend"} {
		t.Run(id, func(t *testing.T) {
			timeline, err := svc.GetTimeline(ctx, id, start, end, 0)
			require.NoError(t, err)
			require.Len(t, timeline, 145)
			assert.Equal(t, start, timeline[0].Time)
			assert.Equal(t, end, timeline[len(timeline)-1].Time)
			assert.Equal(t, DefaultTimelineFidelity, timeline[1].Time.Sub(timeline[0].Time))

			for _, p := range timeline[:10] {
				h, err := svc.GetHeightAt(ctx, id, p.Time)
				require.NoError(t, err)
				assert.Equal(t, p.Height, h)
			}

			// extremes are the turning points of the same curve
			extremes, err := svc.GetExtremes(ctx, id, start, end)
			require.NoError(t, err)
			for _, e := range extremes {
				h, err := svc.GetHeightAt(ctx, id, e.Time)
				require.NoError(t, err)
				assert.InDelta(t, h, e.Height, 1e-4)
			}
		})
	}

	custom, err := svc.GetTimeline(ctx, "whitby", start, end, time.Hour)
	require.NoError(t, err)
	assert.Len(t, custom, 25)

	_, err = svc.GetTimeline(ctx, "whitby", start, end, -time.Minute)
	assert.Error(t, err)
}

func TestService_MemoisesPredictors(t *testing.T) {
	var builds atomic.Int32
	factory := predictor.FactoryFunc(func(c []models.HarmonicConstituent, o *models.StationOffsets) (predictor.Predictor, error) {
		builds.Add(1)
		return predictor.NewHarmonic(c, o)
	})

	svc := NewService(testDirectory(), testCacheConfig, WithPredictorFactory(factory))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := svc.GetHeightAt(ctx, "whitby", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	_, err := svc.GetHeightAt(ctx, "sandsend", now)
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
}

func TestService_PredictorFailures(t *testing.T) {
	factory := predictor.FactoryFunc(func([]models.HarmonicConstituent, *models.StationOffsets) (predictor.Predictor, error) {
		return panicPredictor{}, nil
	})
	svc := NewService(testDirectory(), testCacheConfig, WithPredictorFactory(factory))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		call func() error
		op   string
	}{
		{
			name: "panic in extremes",
			call: func() error { _, err := svc.GetExtremes(ctx, "whitby", now, now.Add(time.Hour)); return err },
			op:   "extremes",
		},
		{
			name: "timeline error",
			call: func() error { _, err := svc.GetTimeline(ctx, "whitby", now, now.Add(time.Hour), 0); return err },
			op:   "timeline",
		},
		{
			name: "height error",
			call: func() error { _, err := svc.GetHeightAt(ctx, "whitby", now); return err },
			op:   "height",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var predErr *PredictionError
			require.True(t, errors.As(err, &predErr), "got %v", err)
			assert.Equal(t, tt.op, predErr.Operation)
			assert.Equal(t, "whitby", predErr.StationID)
		})
	}

	t.Run("factory failure is a data error", func(t *testing.T) {
		failing := predictor.FactoryFunc(func([]models.HarmonicConstituent, *models.StationOffsets) (predictor.Predictor, error) {
			return nil, predictor.ErrNoConstituents
		})
		svc := NewService(testDirectory(), testCacheConfig, WithPredictorFactory(failing))
		_, err := svc.GetHeightAt(ctx, "whitby", now)
		var invalid *InvalidStationDataError
		require.True(t, errors.As(err, &invalid))
		assert.True(t, errors.Is(err, predictor.ErrNoConstituents))
	})
}

func TestService_ExtremesCache(t *testing.T) {
	extremesCache, err := cache.NewExtremesCacheWithStore(testCacheConfig, nil)
	require.NoError(t, err)

	var builds atomic.Int32
	factory := predictor.FactoryFunc(func(c []models.HarmonicConstituent, o *models.StationOffsets) (predictor.Predictor, error) {
		builds.Add(1)
		return predictor.NewHarmonic(c, o)
	})
	svc := NewService(testDirectory(), testCacheConfig, WithPredictorFactory(factory), WithExtremesCache(extremesCache))
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	first, err := svc.GetExtremes(ctx, "whitby", start, end)
	require.NoError(t, err)
	second, err := svc.GetExtremes(ctx, "whitby", start, end)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), extremesCache.GetCacheStats()["lru_hits"])
	assert.Equal(t, int32(1), builds.Load())
}
