package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// Config holds all configuration for the application.
type Config struct {
	// Database
	DatabaseURL string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Sweep
	SweepToken    string // shared secret for the external scheduler
	SweepSchedule string // optional cron spec for the in-process sweep

	// Late fee policy
	LateFeeKind     string
	LateFeeValue    string
	GracePeriodDays int

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	graceDays, err := getEnvInt("GRACE_PERIOD_DAYS", 0)
	if err != nil {
		return nil, err
	}
	ratePerMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		SweepToken:         getEnv("SWEEP_TOKEN", ""),
		SweepSchedule:      getEnv("SWEEP_SCHEDULE", ""),
		LateFeeKind:        getEnv("LATE_FEE_KIND", string(domain.LateFeePercentageDaily)),
		LateFeeValue:       getEnv("LATE_FEE_VALUE", "0.5"),
		GracePeriodDays:    graceDays,
		RateLimitPerMinute: ratePerMinute,
		RateLimitBurst:     rateBurst,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LateFeePolicy materializes the configured penalty policy into the explicit
// value object the engine receives at call time.
func (c *Config) LateFeePolicy() (domain.LateFeePolicy, error) {
	value, err := decimal.NewFromString(c.LateFeeValue)
	if err != nil {
		return domain.LateFeePolicy{}, fmt.Errorf("LATE_FEE_VALUE is not a valid decimal: %w", err)
	}
	policy := domain.LateFeePolicy{
		Kind:            domain.LateFeeKind(c.LateFeeKind),
		Value:           value,
		GracePeriodDays: c.GracePeriodDays,
	}
	if err := policy.Validate(); err != nil {
		return domain.LateFeePolicy{}, err
	}
	return policy, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SweepToken == "" {
		return fmt.Errorf("SWEEP_TOKEN is required")
	}
	if _, err := c.LateFeePolicy(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
