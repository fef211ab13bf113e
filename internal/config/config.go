package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
)

// Fallback location used when no device or manual location is available.
var WhitbyFallback = models.GeoLocation{
	Latitude:  54.486,
	Longitude: -0.615,
	Source:    models.LocationSourceFallback,
	Label:     "Whitby",
}

type Config struct {
	Environment string        `validate:"required"`
	LogLevel    zerolog.Level `validate:"-"`
	HTTPTimeout time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=0,lte=10"`

	// Station database sources, tried in order: SQLite, local file, remote URL.
	StationDBURL      string `validate:"omitempty,url"`
	StationDBPath     string
	StationSQLitePath string
	StationBucket     string

	RefreshInterval  time.Duration `validate:"gte=1s"`
	TimelineFidelity time.Duration `validate:"gte=1s"`

	FallbackLocation models.GeoLocation

	Port               string `validate:"required,numeric"`
	RateLimitPerMinute int    `validate:"gt=0"`

	AlertsEnabled bool
	AlertLeadTime time.Duration `validate:"gte=1m,lte=24h"`
	AlertHigh     bool
	AlertLow      bool

	TracingEnabled bool
	OTLPEndpoint   string `validate:"required_if=TracingEnabled true"`
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithStationSources(url, path, sqlitePath, bucket string) Option {
	return func(c *Config) {
		c.StationDBURL = url
		c.StationDBPath = path
		c.StationSQLitePath = sqlitePath
		c.StationBucket = bucket
	}
}

func WithRefreshInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.RefreshInterval = interval
	}
}

func WithFallbackLocation(loc models.GeoLocation) Option {
	return func(c *Config) {
		c.FallbackLocation = loc
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithAlerts configures tide alerts; lead is how long before the extreme the alert fires.
func WithAlerts(enabled bool, lead time.Duration, high, low bool) Option {
	return func(c *Config) {
		c.AlertsEnabled = enabled
		c.AlertLeadTime = lead
		c.AlertHigh = high
		c.AlertLow = low
	}
}

// WithTracing enables span export to an OTLP gRPC collector.
func WithTracing(enabled bool, endpoint string) Option {
	return func(c *Config) {
		c.TracingEnabled = enabled
		c.OTLPEndpoint = endpoint
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:        "production",
		LogLevel:           zerolog.InfoLevel,
		HTTPTimeout:        10 * time.Second,
		MaxRetries:         3,
		RefreshInterval:    60 * time.Second,
		TimelineFidelity:   600 * time.Second,
		FallbackLocation:   WhitbyFallback,
		Port:               "8080",
		RateLimitPerMinute: 120,
		AlertLeadTime:      30 * time.Minute,
		AlertHigh:          true,
		AlertLow:           true,
		OTLPEndpoint:       "localhost:4317",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate checks the configuration after options and environment are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.FallbackLocation.Validate(); err != nil {
		return fmt.Errorf("invalid fallback location: %w", err)
	}
	return nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables, reading a .env
// file first when one is present.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	fallback := WhitbyFallback
	if lat, lon, ok := getCoordinatesEnv("HOME_LAT", "HOME_LON"); ok {
		fallback = models.GeoLocation{
			Latitude:  lat,
			Longitude: lon,
			Source:    models.LocationSourceManual,
			Label:     getEnvOrDefault("HOME_LABEL", ""),
		}
	}

	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithStationSources(
			os.Getenv("STATION_DB_URL"),
			os.Getenv("STATION_DB_PATH"),
			os.Getenv("STATION_SQLITE_PATH"),
			os.Getenv("STATION_BUCKET"),
		),
		WithRefreshInterval(getDurationEnvOrDefault("REFRESH_INTERVAL", 60*time.Second)),
		WithFallbackLocation(fallback),
		WithPort(getEnvOrDefault("PORT", "8080")),
		WithAlerts(
			getEnvBool("ALERTS_ENABLED", false),
			getDurationEnvOrDefault("ALERT_LEAD_TIME", 30*time.Minute),
			getEnvBool("ALERT_HIGH", true),
			getEnvBool("ALERT_LOW", true),
		),
		WithTracing(
			getEnvOrDefault("OTEL_ENABLED", "") == "true",
			getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		),
		func(c *Config) {
			c.MaxRetries = getEnvInt("HTTP_MAX_RETRIES", c.MaxRetries)
			c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
		},
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getCoordinatesEnv(latKey, lonKey string) (float64, float64, bool) {
	latStr, lonStr := os.Getenv(latKey), os.Getenv(lonKey)
	if latStr == "" || lonStr == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		log.Warn().Str("key", latKey).Msg("Invalid latitude in environment variable, using fallback")
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		log.Warn().Str("key", lonKey).Msg("Invalid longitude in environment variable, using fallback")
		return 0, 0, false
	}
	return lat, lon, true
}
