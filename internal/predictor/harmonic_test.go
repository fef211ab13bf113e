package predictor

import (
	"math"
	"testing"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const m2Period = 12*time.Hour + 25*time.Minute + 14*time.Second

func semidiurnal() []models.HarmonicConstituent {
	return []models.HarmonicConstituent{
		{Name: "M2", Amplitude: 1.8, Phase: 40},
		{Name: "S2", Amplitude: 0.6, Phase: 75},
		{Name: "K1", Amplitude: 0.1, Phase: 200},
	}
}

func TestNewHarmonic(t *testing.T) {
	tests := []struct {
		name         string
		constituents []models.HarmonicConstituent
		wantErr      string
	}{
		{
			name:         "known constituents",
			constituents: semidiurnal(),
		},
		{
			name:         "explicit speed for unknown name",
			constituents: []models.HarmonicConstituent{{Name: "XY3", Amplitude: 0.2, Phase: 10, Speed: 43.5}},
		},
		{
			name:         "empty",
			constituents: nil,
			wantErr:      "no harmonic constituents",
		},
		{
			name:         "unknown name without speed",
			constituents: []models.HarmonicConstituent{{Name: "XY3", Amplitude: 0.2}},
			wantErr:      "unknown constituent",
		},
		{
			name:         "non-finite amplitude",
			constituents: []models.HarmonicConstituent{{Name: "M2", Amplitude: math.NaN()}},
			wantErr:      "non-finite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHarmonic(tt.constituents, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestHarmonic_HeightAt(t *testing.T) {
	h, err := NewHarmonic([]models.HarmonicConstituent{
		{Name: "Z0", Amplitude: 2.5},
		{Name: "M2", Amplitude: 1.0, Phase: 0},
	}, nil)
	require.NoError(t, err)

	epoch := time.Unix(0, 0).UTC()

	height, err := h.HeightAt(epoch)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, height, 1e-9)

	height, err = h.HeightAt(epoch.Add(m2Period / 2))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, height, 1e-4)
}

func TestHarmonic_Extremes(t *testing.T) {
	h, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48*time.Hour - time.Millisecond)

	extremes, err := h.Extremes(start, end)
	require.NoError(t, err)

	// two highs and two lows a day, give or take one at the edges
	assert.GreaterOrEqual(t, len(extremes), 7)
	assert.LessOrEqual(t, len(extremes), 9)
	require.NoError(t, models.ValidateExtremes(extremes))

	for i, e := range extremes {
		assert.False(t, e.Time.Before(start), "extreme %d before range", i)
		assert.False(t, e.Time.After(end), "extreme %d after range", i)

		level, err := h.HeightAt(e.Time)
		require.NoError(t, err)
		assert.InDelta(t, level, e.Height, 1e-4, "extreme %d height disagrees with HeightAt", i)

		// refined extremes dominate their neighbourhood
		before, _ := h.HeightAt(e.Time.Add(-5 * time.Minute))
		after, _ := h.HeightAt(e.Time.Add(5 * time.Minute))
		if e.Type == models.TideTypeHigh {
			assert.GreaterOrEqual(t, e.Height, before)
			assert.GreaterOrEqual(t, e.Height, after)
		} else {
			assert.LessOrEqual(t, e.Height, before)
			assert.LessOrEqual(t, e.Height, after)
		}
	}
}

func TestHarmonic_ExtremesPureM2(t *testing.T) {
	h, err := NewHarmonic([]models.HarmonicConstituent{{Name: "M2", Amplitude: 1.0}}, nil)
	require.NoError(t, err)

	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	extremes, err := h.Extremes(start, start.Add(72*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, extremes)

	for i := 1; i < len(extremes); i++ {
		gap := extremes[i].Time.Sub(extremes[i-1].Time)
		assert.InDelta(t, float64(m2Period/2), float64(gap), float64(time.Second))
		assert.NotEqual(t, extremes[i-1].Type, extremes[i].Type)
	}
	for _, e := range extremes {
		if e.Type == models.TideTypeHigh {
			assert.InDelta(t, 1.0, e.Height, 1e-6)
		} else {
			assert.InDelta(t, -1.0, e.Height, 1e-6)
		}
	}
}

func TestHarmonic_ExtremesEmptyRange(t *testing.T) {
	h, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	extremes, err := h.Extremes(start, start.Add(time.Minute))
	require.NoError(t, err)
	assert.NotNil(t, extremes)

	_, err = h.Extremes(start, start.Add(-time.Hour))
	assert.Error(t, err)
}

func TestHarmonic_Timeline(t *testing.T) {
	h, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	step := 10 * time.Minute

	points, err := h.Timeline(start, end, step)
	require.NoError(t, err)
	require.Len(t, points, 145)

	assert.Equal(t, start, points[0].Time)
	assert.Equal(t, end, points[len(points)-1].Time)

	for i := 1; i < len(points)-1; i++ {
		assert.Equal(t, step, points[i].Time.Sub(points[i-1].Time))
	}
	for _, p := range points {
		level, err := h.HeightAt(p.Time)
		require.NoError(t, err)
		assert.Equal(t, level, p.Height)
	}

	_, err = h.Timeline(start, end, 0)
	assert.Error(t, err)

	_, err = h.Timeline(end, start, step)
	assert.Error(t, err)

	single, err := h.Timeline(start, start, step)
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func TestHarmonic_SubordinateOffsets(t *testing.T) {
	ref, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	refHeight, _ := ref.HeightAt(at)

	tests := []struct {
		name    string
		offsets models.StationOffsets
		want    func() float64
	}{
		{
			name: "fixed height offset",
			offsets: models.StationOffsets{
				Reference: "REF",
				Height:    models.HeightOffsets{High: 0.4, Low: 0.4, Type: models.HeightOffsetFixed},
			},
			want: func() float64 { return refHeight + 0.4 },
		},
		{
			name: "ratio height offset",
			offsets: models.StationOffsets{
				Reference: "REF",
				Height:    models.HeightOffsets{High: 0.5, Low: 0.5, Type: models.HeightOffsetRatio},
			},
			want: func() float64 { return refHeight * 0.5 },
		},
		{
			name: "zero ratio leaves heights untouched",
			offsets: models.StationOffsets{
				Reference: "REF",
				Height:    models.HeightOffsets{Type: models.HeightOffsetRatio},
			},
			want: func() float64 { return refHeight },
		},
		{
			name: "uniform time offset",
			offsets: models.StationOffsets{
				Reference: "REF",
				Time:      models.TimeOffsets{High: 45, Low: 45},
			},
			want: func() float64 {
				h, _ := ref.HeightAt(at.Add(-45 * time.Minute))
				return h
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offsets := tt.offsets
			sub, err := NewHarmonic(semidiurnal(), &offsets)
			require.NoError(t, err)

			got, err := sub.HeightAt(at)
			require.NoError(t, err)
			assert.InDelta(t, tt.want(), got, 1e-9)
		})
	}
}

func TestHarmonic_SubordinateExtremesShift(t *testing.T) {
	ref, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(t, err)
	sub, err := NewHarmonic(semidiurnal(), &models.StationOffsets{
		Reference: "REF",
		Time:      models.TimeOffsets{High: 30, Low: 30},
	})
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	refExtremes, err := ref.Extremes(start, end)
	require.NoError(t, err)
	subExtremes, err := sub.Extremes(start.Add(30*time.Minute), end.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, len(refExtremes), len(subExtremes))

	for i := range refExtremes {
		assert.Equal(t, refExtremes[i].Type, subExtremes[i].Type)
		assert.InDelta(t, float64(30*time.Minute), float64(subExtremes[i].Time.Sub(refExtremes[i].Time)), float64(time.Second))
		assert.InDelta(t, refExtremes[i].Height, subExtremes[i].Height, 1e-6)
	}
}

func TestConstituentSpeed(t *testing.T) {
	speed, ok := ConstituentSpeed("m2")
	assert.True(t, ok)
	assert.InDelta(t, 28.9841042, speed, 1e-7)

	_, ok = ConstituentSpeed("nope")
	assert.False(t, ok)
}

func BenchmarkHarmonic_Extremes(b *testing.B) {
	h, err := NewHarmonic(semidiurnal(), nil)
	require.NoError(b, err)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.Extremes(start, start.Add(72*time.Hour))
	}
}
