package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"bookclub-lms/internal/core/domain"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Lending  LendingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// LendingConfig holds the lending policy and the reminder schedules.
// The policy is selected by LENDING_PROFILE ("daily" or "fast") and each
// field can then be overridden individually, so both the per-day and the
// fast-cycle fine schemes run from the same binary.
type LendingConfig struct {
	Profile    string
	Policy     domain.FinePolicy
	SweepSpec  string
	DigestSpec string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	lending, err := loadLendingConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(),
		JWT:      loadJWTConfig(),
		Lending:  lending,
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded [MODE: %s, LENDING: %s]", appMode, lending.Profile)
	return config, nil
}

// loadDatabaseConfig loads database config
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		User:     getEnv("DB_USER", "root"),
		Password: getEnv("DB_PASS", ""),
		DBName:   getEnv("DB_NAME", "bookclub"),
	}
}

// loadJWTConfig loads JWT config
func loadJWTConfig() JWTConfig {
	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv("JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadLendingConfig loads the lending policy profile and its overrides
func loadLendingConfig() (LendingConfig, error) {
	profile := strings.TrimSpace(getEnv("LENDING_PROFILE", "daily"))

	var policy domain.FinePolicy
	switch profile {
	case "daily":
		policy = domain.DailyPolicy()
	case "fast":
		policy = domain.FastPolicy()
	default:
		return LendingConfig{}, fmt.Errorf("invalid LENDING_PROFILE: '%s' (must be 'daily' or 'fast')", profile)
	}

	if v := os.Getenv("FINE_BLOCK_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return LendingConfig{}, fmt.Errorf("invalid FINE_BLOCK_MINUTES: %q", v)
		}
		policy.BlockMinutes = n
	}
	if v := os.Getenv("FINE_PER_BLOCK"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return LendingConfig{}, fmt.Errorf("invalid FINE_PER_BLOCK: %q", v)
		}
		policy.PerBlock = f
	}
	if v := os.Getenv("LOAN_PERIOD_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return LendingConfig{}, fmt.Errorf("invalid LOAN_PERIOD_MINUTES: %q", v)
		}
		policy.LoanPeriod = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("REMINDER_LEAD_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return LendingConfig{}, fmt.Errorf("invalid REMINDER_LEAD_MINUTES: %q", v)
		}
		policy.ReminderLead = time.Duration(n) * time.Minute
	}

	return LendingConfig{
		Profile:    profile,
		Policy:     policy,
		SweepSpec:  getEnv("REMINDER_SWEEP_SPEC", "@every 1m"),
		DigestSpec: getEnv("OVERDUE_DIGEST_SPEC", "0 18 * * *"),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://bookclub.local"
	}
	return origins
}
