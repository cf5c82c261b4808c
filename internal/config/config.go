// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Season registry
// --------------------------------------------------------------------------

type SeasonConfig struct {
	League        string
	CurrentSeason string // "2024-25"
	StartYear     int
}

var SeasonRegistry = map[string]SeasonConfig{
	"NBA": {League: "NBA", CurrentSeason: "2024-25", StartYear: 2024},
}

// CurrentSeason is the default --season for ingest commands.
func CurrentSeason() string {
	return SeasonRegistry["NBA"].CurrentSeason
}

// --------------------------------------------------------------------------
// Table names: single source of truth, matches the migrations
// --------------------------------------------------------------------------

const (
	RawStatsTable       = "players_raw"
	ProcessedStatsTable = "processed_game_stats"
	MonthlyTrendsTable  = "player_monthly_trends"
	TrendLeadersView    = "mv_trend_leaders"

	// BoxScoresChannel is the NOTIFY channel raised when raw rows land.
	BoxScoresChannel = "boxscores_loaded"
)

// --------------------------------------------------------------------------
// Config struct: populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string        `validate:"required"`
	DBPoolMinConns int           `validate:"gte=0"`
	DBPoolMaxConns int           `validate:"gt=0,gtefield=DBPoolMinConns"`
	DBPoolMaxLife  time.Duration `validate:"gt=0"`

	// API server
	APIHost     string `validate:"required"`
	APIPort     int    `validate:"min=1,max=65535"`
	Environment string `validate:"oneof=development staging production test"`
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int           `validate:"gt=0"`
	RateLimitWindow   time.Duration `validate:"gt=0"`

	// External API keys
	BDLAPIKey string

	// Cache
	CacheEnabled bool

	// Trend computation
	TrendDecay      float64   `validate:"gt=0,lte=1"`
	TrendAsOf       time.Time `validate:"required"`
	TrendAsOfPinned bool      // TREND_AS_OF was set explicitly
	PipelineWorkers int       `validate:"min=1,max=256"`

	// Background workers
	ListenerEnabled     bool
	MaintenanceInterval time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}

	asOf, err := envDate("TREND_AS_OF", today())
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		BDLAPIKey: envOr("BALLDONTLIE_API_KEY", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),

		TrendDecay:      envFloat("TREND_DECAY_FACTOR", 0.95),
		TrendAsOf:       asOf,
		TrendAsOfPinned: os.Getenv("TREND_AS_OF") != "",
		PipelineWorkers: envInt("PIPELINE_WORKERS", 4),

		ListenerEnabled:     envBool("LISTENER_ENABLED", true),
		MaintenanceInterval: time.Duration(envInt("MAINTENANCE_INTERVAL_MINUTES", 15)) * time.Minute,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// today is the current UTC calendar date. Resolved once per process so every
// trend computed by one run shares the same as-of date.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDate parses a YYYY-MM-DD value. Unlike the other helpers a malformed
// value is an error, not a fallback.
func envDate(key string, fallback time.Time) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", key, err)
	}
	return t, nil
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
