// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"
	LogLevel    string

	// Storage
	StoreDriver    string
	DatabaseURL    string
	MigrateOnStart bool
	MongoURI       string
	MongoDatabase  string

	// Security
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	RateLimitRPM   int

	// Redis (shared rate-limit counters). Empty keeps counters in process.
	RedisURL string

	// Complaints
	EscalateAfterDays  int
	EscalationInterval int // minutes
	StudentActionScope string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 5000),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		MongoURI:       getEnv("MONGODB_URI", ""),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "hostel_platform"),

		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		JWTTTL:         getEnvDuration("JWT_TTL", 7*24*time.Hour),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),

		RedisURL: getEnv("REDIS_URL", ""),

		EscalateAfterDays:  getEnvInt("ESCALATE_AFTER_DAYS", 7),
		EscalationInterval: getEnvInt("ESCALATION_INTERVAL", 60),
		StudentActionScope: getEnv("STUDENT_ACTION_SCOPE", "own"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, mongo, memory (got %q)", c.StoreDriver)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.EscalationInterval <= 0 {
		return fmt.Errorf("ESCALATION_INTERVAL must be positive")
	}

	// Validate required fields in production
	if c.IsProduction() {
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.StoreDriver == DriverPostgres && c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.StoreDriver == DriverMongo && c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required in production")
		}
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// EscalateAfter is the age at which open complaints are auto-escalated.
// Zero disables the worker.
func (c *Config) EscalateAfter() time.Duration {
	return time.Duration(c.EscalateAfterDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
