package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	UserAgent   string
	// Upstream sources
	WikiAPIURL       string
	PageviewsAPIURL  string
	PageviewsProject string // e.g. en.wikipedia.org
	GeoAPIURL        string
	// Timeouts
	HTTPTimeout    time.Duration // per external call
	RequestTimeout time.Duration // whole pipeline
	// Retry policy shared by all fetchers
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	// Geolocation cache
	GeoCacheSize   int
	GeoCacheTTL    time.Duration
	GeoConcurrency int
	GeoRatePerSec  float64
	// Analysis defaults
	DefaultTopN         int
	DefaultTimezone     string
	DefaultPageviewDays int
	RevertStrategy      string // "first" or "recent"
	RevertRadius        int    // 0 = unbounded lookback
	CitationFormat      string // "wikitext" or "html"
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		UserAgent:   getEnv("USER_AGENT", "WikiDash/1.0 (https://github.com/wikidash/wikidash)"),
		// Upstream sources
		WikiAPIURL:       getEnv("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),
		PageviewsAPIURL:  getEnv("PAGEVIEWS_API_URL", "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article"),
		PageviewsProject: getEnv("PAGEVIEWS_PROJECT", "en.wikipedia.org"),
		GeoAPIURL:        getEnv("GEO_API_URL", "http://ip-api.com/json"),
		// Timeouts
		HTTPTimeout:    getDuration("HTTP_TIMEOUT", 10*time.Second),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 25*time.Second),
		// Retry policy
		RetryMaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 4),
		RetryBaseDelay:   getDuration("RETRY_BASE_DELAY", 200*time.Millisecond),
		RetryMaxDelay:    getDuration("RETRY_MAX_DELAY", 3*time.Second),
		// Geolocation cache
		GeoCacheSize:   getInt("GEO_CACHE_SIZE", 4096),
		GeoCacheTTL:    getDuration("GEO_CACHE_TTL", 24*time.Hour),
		GeoConcurrency: getInt("GEO_CONCURRENCY", 8),
		GeoRatePerSec:  getFloat("GEO_RATE_PER_SEC", 40),
		// Analysis defaults
		DefaultTopN:         getInt("DEFAULT_TOP_N", 10),
		DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "UTC"),
		DefaultPageviewDays: getInt("DEFAULT_PAGEVIEW_DAYS", 60),
		RevertStrategy:      strings.ToLower(getEnv("REVERT_STRATEGY", "first")),
		RevertRadius:        getInt("REVERT_RADIUS", 0),
		CitationFormat:      strings.ToLower(getEnv("CITATION_FORMAT", "wikitext")),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.WikiAPIURL, validation.Required),
		validation.Field(&c.PageviewsAPIURL, validation.Required),
		validation.Field(&c.GeoAPIURL, validation.Required),
		validation.Field(&c.RetryMaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.GeoCacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.GeoConcurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTopN, validation.Required, validation.Min(1), validation.Max(MaxTopN)),
		validation.Field(&c.DefaultPageviewDays, validation.Required, validation.Min(1), validation.Max(MaxPageviewDays)),
		validation.Field(&c.RevertStrategy, validation.In("first", "recent")),
		validation.Field(&c.RevertRadius, validation.Min(0)),
		validation.Field(&c.CitationFormat, validation.In("wikitext", "html")),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid configuration: DEFAULT_TIMEZONE: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
