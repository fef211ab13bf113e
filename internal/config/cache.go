package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// Resolved predictor contexts, keyed by station id
	PredictorLRUSize       int
	PredictorLRUTTLMinutes int

	// Extremes cache tiers
	ExtremesLRUSize       int
	ExtremesLRUTTLMinutes int
	ExtremesDynamoTTLDays int
	ExtremesTableName     string

	// Station list snapshot
	StationListTTLDays int

	// Batch processing settings
	BatchSize       int
	MaxBatchRetries int

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultPredictorLRUSize    = 256
	defaultPredictorTTLMinutes = 60
	defaultExtremesLRUSize     = 1000
	defaultExtremesTTLMinutes  = 15
	defaultDynamoTTLDays       = 2
	defaultStationListTTLDays  = 2
	defaultBatchSize           = 25
	defaultMaxBatchRetries     = 3
	defaultExtremesTableName   = "tide-extremes-cache"
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		PredictorLRUSize:       getEnvInt("CACHE_PREDICTOR_LRU_SIZE", defaultPredictorLRUSize),
		PredictorLRUTTLMinutes: getEnvInt("CACHE_PREDICTOR_LRU_TTL_MINUTES", defaultPredictorTTLMinutes),
		ExtremesLRUSize:        getEnvInt("CACHE_EXTREMES_LRU_SIZE", defaultExtremesLRUSize),
		ExtremesLRUTTLMinutes:  getEnvInt("CACHE_EXTREMES_LRU_TTL_MINUTES", defaultExtremesTTLMinutes),
		ExtremesDynamoTTLDays:  getEnvInt("CACHE_DYNAMO_TTL_DAYS", defaultDynamoTTLDays),
		ExtremesTableName:      getEnvOrDefault("CACHE_DYNAMO_TABLE", defaultExtremesTableName),
		StationListTTLDays:     getEnvInt("CACHE_STATION_LIST_TTL_DAYS", defaultStationListTTLDays),
		BatchSize:              getEnvInt("CACHE_BATCH_SIZE", defaultBatchSize),
		MaxBatchRetries:        getEnvInt("CACHE_MAX_BATCH_RETRIES", defaultMaxBatchRetries),
		EnableLRUCache:         getEnvBool("CACHE_ENABLE_LRU", true),
		EnableDynamoCache:      getEnvBool("CACHE_ENABLE_DYNAMO", false),
	}

	log.Debug().
		Int("PredictorLRUSize", config.PredictorLRUSize).
		Int("PredictorLRUTTLMinutes", config.PredictorLRUTTLMinutes).
		Int("ExtremesLRUSize", config.ExtremesLRUSize).
		Int("ExtremesLRUTTLMinutes", config.ExtremesLRUTTLMinutes).
		Int("ExtremesDynamoTTLDays", config.ExtremesDynamoTTLDays).
		Str("ExtremesTableName", config.ExtremesTableName).
		Int("StationListTTLDays", config.StationListTTLDays).
		Int("BatchSize", config.BatchSize).
		Int("MaxBatchRetries", config.MaxBatchRetries).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetPredictorLRUTTL() time.Duration {
	return time.Duration(c.PredictorLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetExtremesLRUTTL() time.Duration {
	return time.Duration(c.ExtremesLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoTTL() time.Duration {
	return time.Duration(c.ExtremesDynamoTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetStationListTTL() time.Duration {
	return time.Duration(c.StationListTTLDays) * 24 * time.Hour
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
