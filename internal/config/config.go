// Package config reads service settings from the environment (optionally
// seeded from a .env file) and risk table overrides from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"listing-insights-go/internal/insurance"
	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/rating"
)

// Config holds everything the binaries need to wire the core.
type Config struct {
	Environment string
	LogLevel    string
	Port        string

	RatingURL         string
	RatingAPIKey      string
	RatingTimeout     time.Duration
	RatingMaxElapsed  time.Duration
	UseMockRating     bool
	RatingConcurrency int

	RiskTablesPath    string
	InferStateFromZip bool
}

// Load reads .env when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() Config {
	return Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),

		RatingURL:         getEnv("RATING_API_URL", ""),
		RatingAPIKey:      getEnv("RATING_API_KEY", ""),
		RatingTimeout:     getEnvDuration("RATING_TIMEOUT", 25*time.Second),
		RatingMaxElapsed:  getEnvDuration("RATING_MAX_ELAPSED", 45*time.Second),
		UseMockRating:     getEnvBool("USE_MOCK_RATING", false),
		RatingConcurrency: getEnvInt("RATING_CONCURRENCY", 4),

		RiskTablesPath:    getEnv("RISK_TABLES_PATH", ""),
		InferStateFromZip: getEnvBool("RISK_INFER_STATE_FROM_ZIP", false),
	}
}

// NewRater picks the rating backend: the mock scores when requested, the
// HTTP client when a URL is configured, otherwise none (empty ratings).
func (c Config) NewRater(log *logger.Logger) rating.Rater {
	switch {
	case c.UseMockRating:
		log.Info("using mock ratings")
		return rating.MockRatings()
	case c.RatingURL != "":
		return rating.NewClient(rating.ClientConfig{
			URL:            c.RatingURL,
			APIKey:         c.RatingAPIKey,
			RequestTimeout: c.RatingTimeout,
			MaxElapsed:     c.RatingMaxElapsed,
		}, log)
	default:
		log.Warn("RATING_API_URL not set, ratings will be empty")
		return nil
	}
}

// RiskTables returns the estimator configuration: the stock tables, with
// RiskTablesPath applied on top when set.
func (c Config) RiskTables() (insurance.Config, error) {
	cfg := insurance.DefaultConfig()
	if c.RiskTablesPath != "" {
		var err error
		if cfg, err = LoadRiskTables(c.RiskTablesPath); err != nil {
			return insurance.Config{}, err
		}
	}
	if c.InferStateFromZip {
		cfg.InferStateFromZip = true
	}
	return cfg, nil
}

// LoadRiskTables overlays a YAML file onto the stock tables. Lookup maps are
// merged key by key; band lists and scalars replace the defaults.
func LoadRiskTables(path string) (insurance.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return insurance.Config{}, fmt.Errorf("failed to read risk tables: %w", err)
	}

	cfg := insurance.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return insurance.Config{}, fmt.Errorf("failed to parse risk tables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return insurance.Config{}, fmt.Errorf("invalid risk tables %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
