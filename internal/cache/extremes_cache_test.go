package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExtremesStore struct {
	mock.Mock
}

func (m *mockExtremesStore) GetExtremes(ctx context.Context, key string) (*models.ExtremesRecord, error) {
	args := m.Called(ctx, key)
	record, _ := args.Get(0).(*models.ExtremesRecord)
	return record, args.Error(1)
}

func (m *mockExtremesStore) SaveExtremes(ctx context.Context, record models.ExtremesRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockExtremesStore) SaveExtremesBatch(ctx context.Context, records []models.ExtremesRecord) error {
	return m.Called(ctx, records).Error(0)
}

func newTestExtremesCache(t *testing.T, store ExtremesStore, clk *mockClock) *ExtremesCache {
	t.Helper()
	c, err := NewExtremesCacheWithStore(testConfig, store)
	require.NoError(t, err)
	c.clock = clk
	return c
}

func TestExtremesCache_LRUTier(t *testing.T) {
	clk := &mockClock{now: testStart}
	c := newTestExtremesCache(t, nil, clk)
	ctx := context.Background()
	end := testStart.Add(24 * time.Hour)

	_, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SaveExtremes(ctx, "whitby", testStart, end, createTestExtremes()))

	got, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, createTestExtremes(), got)

	// a different range is a different key
	_, hit, err = c.GetExtremes(ctx, "whitby", testStart, end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, hit)

	clk.now = testStart.Add(16 * time.Minute)
	_, hit, err = c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.False(t, hit, "entry should expire after the LRU TTL")

	stats := c.GetCacheStats()
	assert.Equal(t, uint64(1), stats["lru_hits"])
	assert.Equal(t, uint64(3), stats["lru_misses"])
}

func TestExtremesCache_StoreTier(t *testing.T) {
	ctx := context.Background()
	end := testStart.Add(24 * time.Hour)
	key := ExtremesKey("whitby", testStart, end)
	record := createTestRecord()

	store := &mockExtremesStore{}
	store.On("GetExtremes", ctx, key).Return(&record, nil).Once()

	c := newTestExtremesCache(t, store, &mockClock{now: testStart})

	got, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, record.Extremes, got)

	// promoted to the LRU, so the store is not asked again
	_, hit, err = c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.True(t, hit)

	store.AssertExpectations(t)
	stats := c.GetCacheStats()
	assert.Equal(t, uint64(1), stats["store_hits"])
	assert.Equal(t, uint64(1), stats["lru_hits"])
}

func TestExtremesCache_StoreErrors(t *testing.T) {
	ctx := context.Background()
	end := testStart.Add(24 * time.Hour)

	store := &mockExtremesStore{}
	store.On("GetExtremes", ctx, mock.Anything).Return(nil, errors.New("unavailable"))
	store.On("SaveExtremes", ctx, mock.Anything).Return(errors.New("unavailable"))

	c := newTestExtremesCache(t, store, &mockClock{now: testStart})

	_, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	assert.Error(t, err)
	assert.False(t, hit)

	err = c.SaveExtremes(ctx, "whitby", testStart, end, createTestExtremes())
	assert.Error(t, err)

	// the LRU tier still took the write
	got, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, got, 3)
}

func TestExtremesCache_SaveWritesRecord(t *testing.T) {
	ctx := context.Background()
	end := testStart.Add(24 * time.Hour)

	store := &mockExtremesStore{}
	store.On("SaveExtremes", ctx, mock.MatchedBy(func(r models.ExtremesRecord) bool {
		return r.Key == ExtremesKey("whitby", testStart, end) &&
			r.StationID == "whitby" &&
			r.Start == testStart.UnixMilli() &&
			r.End == end.UnixMilli() &&
			len(r.Extremes) == 3
	})).Return(nil).Once()

	c := newTestExtremesCache(t, store, &mockClock{now: testStart})
	require.NoError(t, c.SaveExtremes(ctx, "whitby", testStart, end, createTestExtremes()))
	store.AssertExpectations(t)

	c.Clear()
	store.On("GetExtremes", ctx, mock.Anything).Return(nil, nil).Once()
	_, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestExtremesCache_LRUDisabled(t *testing.T) {
	cfg := *testConfig
	cfg.EnableLRUCache = false

	c, err := NewExtremesCacheWithStore(&cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	end := testStart.Add(24 * time.Hour)
	require.NoError(t, c.SaveExtremes(ctx, "whitby", testStart, end, createTestExtremes()))

	_, hit, err := c.GetExtremes(ctx, "whitby", testStart, end)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestExtremesKey(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	assert.Equal(t, "whitby:1740787200000:1740790800000", ExtremesKey("whitby", start, end))

	// the same instant in another zone is the same key
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	assert.Equal(t, ExtremesKey("whitby", start, end), ExtremesKey("whitby", start.In(london), end.In(london)))
}

func TestNewExtremesCache_WithoutDynamo(t *testing.T) {
	cfg := config.CacheConfig{ExtremesLRUSize: 5, ExtremesLRUTTLMinutes: 1, EnableLRUCache: true}
	c, err := NewExtremesCache(context.Background(), &cfg)
	require.NoError(t, err)
	assert.Nil(t, c.store)
}
