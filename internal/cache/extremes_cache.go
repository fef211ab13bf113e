package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// LRUCacheEntry wraps the cached data with its expiry
type LRUCacheEntry struct {
	Extremes  []models.TideExtreme
	ExpiresAt time.Time
}

// ExtremesCache memoises predicted extremes per station and range in an LRU,
// backed by an optional persistent store.
type ExtremesCache struct {
	lru    *lru.Cache[string, *LRUCacheEntry]
	store  ExtremesStore
	ttl    time.Duration
	clock  clock
	config *config.CacheConfig

	lruHits     atomic.Uint64
	lruMisses   atomic.Uint64
	storeHits   atomic.Uint64
	storeMisses atomic.Uint64
}

// NewExtremesCache builds the cache from configuration, connecting to DynamoDB
// when EnableDynamoCache is set.
func NewExtremesCache(ctx context.Context, cacheConfig *config.CacheConfig) (*ExtremesCache, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	var store ExtremesStore
	if cacheConfig.EnableDynamoCache {
		client, err := NewDynamoClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		store = NewDynamoExtremesCache(client, cacheConfig)
	}

	return NewExtremesCacheWithStore(cacheConfig, store)
}

// NewExtremesCacheWithStore builds the cache over store, which may be nil.
func NewExtremesCacheWithStore(cacheConfig *config.CacheConfig, store ExtremesStore) (*ExtremesCache, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	size := cacheConfig.ExtremesLRUSize
	if size <= 0 {
		size = 1
	}
	lruCache, err := lru.New[string, *LRUCacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &ExtremesCache{
		lru:    lruCache,
		store:  store,
		ttl:    cacheConfig.GetExtremesLRUTTL(),
		clock:  realClock{},
		config: cacheConfig,
	}, nil
}

// ExtremesKey identifies a station and range.
func ExtremesKey(stationID string, start, end time.Time) string {
	return fmt.Sprintf("%s:%d:%d", stationID, start.UnixMilli(), end.UnixMilli())
}

// GetExtremes looks in the LRU first, then the store. The bool reports a hit.
func (c *ExtremesCache) GetExtremes(ctx context.Context, stationID string, start, end time.Time) ([]models.TideExtreme, bool, error) {
	key := ExtremesKey(stationID, start, end)

	if c.config.EnableLRUCache {
		if entry, ok := c.lru.Get(key); ok {
			if c.clock.Now().Before(entry.ExpiresAt) {
				c.lruHits.Add(1)
				return entry.Extremes, true, nil
			}
			c.lru.Remove(key)
		}
		c.lruMisses.Add(1)
	}

	if c.store == nil {
		return nil, false, nil
	}

	record, err := c.store.GetExtremes(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("getting extremes from store: %w", err)
	}
	if record == nil {
		c.storeMisses.Add(1)
		return nil, false, nil
	}

	c.storeHits.Add(1)
	c.addToLRU(key, record.Extremes)
	return record.Extremes, true, nil
}

// SaveExtremes writes to both tiers.
func (c *ExtremesCache) SaveExtremes(ctx context.Context, stationID string, start, end time.Time, extremes []models.TideExtreme) error {
	key := ExtremesKey(stationID, start, end)
	c.addToLRU(key, extremes)

	if c.store == nil {
		return nil
	}

	record := models.ExtremesRecord{
		Key:       key,
		StationID: stationID,
		Start:     start.UnixMilli(),
		End:       end.UnixMilli(),
		Extremes:  extremes,
	}
	if err := c.store.SaveExtremes(ctx, record); err != nil {
		return fmt.Errorf("saving extremes to store: %w", err)
	}

	return nil
}

func (c *ExtremesCache) addToLRU(key string, extremes []models.TideExtreme) {
	if !c.config.EnableLRUCache {
		return
	}
	c.lru.Add(key, &LRUCacheEntry{
		Extremes:  extremes,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

// GetCacheStats returns hit and miss counters per tier.
func (c *ExtremesCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":     c.lruHits.Load(),
		"lru_misses":   c.lruMisses.Load(),
		"store_hits":   c.storeHits.Load(),
		"store_misses": c.storeMisses.Load(),
	}
}

// Clear empties the LRU tier.
func (c *ExtremesCache) Clear() {
	c.lru.Purge()
	log.Debug().Msg("Cleared extremes LRU cache")
}
