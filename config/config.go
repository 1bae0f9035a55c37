package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverSQLite    = "sqlite"
	DriverMemory    = "memory"
)

const devSecret = "dev-secret-key"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Store     StoreConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Calendar  CalendarConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration // lifetime of tokens minted by scripts/seed.go
}

type StoreConfig struct {
	Driver              string
	FirebaseProjectID   string
	CredentialsPath     string
	FirestoreCollection string
	SQLitePath          string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests   int
	Window     time.Duration
	TrustProxy bool // key clients by the X-Forwarded-For hop appended by our proxy
}

type LoggingConfig struct {
	Level  string
	Format string // text, json or logfmt
	File   string // optional rotating log file
}

type CalendarConfig struct {
	Timezone string // IANA name used to compute a user's "today"
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Auth: AuthConfig{
			Secret:     getEnv("JWT_SECRET", devSecret),
			Issuer:     getEnv("JWT_ISSUER", ""),
			Expiration: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Store: StoreConfig{
			Driver:              strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath:     getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "journal"),
			SQLitePath:          getEnv("SQLITE_PATH", "./daybook.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		RateLimit: RateLimitConfig{
			Requests:   parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:     parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
			TrustProxy: parseBool(getEnv("TRUST_PROXY", "false"), false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		Calendar: CalendarConfig{
			Timezone: getEnv("TIMEZONE", "UTC"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseBool(s string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	// Handle simple formats like "30m", "7d", "60"
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if i, err := strconv.Atoi(days); err == nil {
			return time.Duration(i) * 24 * time.Hour
		}
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.Secret == devSecret && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	switch c.Store.Driver {
	case DriverFirestore:
		if c.Store.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID must be set for the firestore driver"))
		}
		if c.Store.CredentialsPath != "" {
			if _, err := os.Stat(c.Store.CredentialsPath); os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("firebase credentials file not found: %s", c.Store.CredentialsPath))
			}
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must be set for the sqlite driver"))
		}
	case DriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("the memory store driver cannot be used in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Calendar.Timezone, err))
	}
	return errors.Join(errs...)
}
