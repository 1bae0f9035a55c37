package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "JWT_SECRET", "STORE_DRIVER", "TIMEZONE", "RATE_LIMIT_WINDOW", "ALLOWED_ORIGINS", "TRUST_PROXY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "UTC", cfg.Calendar.Timezone)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.False(t, cfg.RateLimit.TrustProxy)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_EXPIRATION", "7d")
	t.Setenv("TIMEZONE", "Europe/Vilnius")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.Expiration)
	assert.True(t, cfg.RateLimit.TrustProxy)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Production(t *testing.T) {
	cfg := Load()
	cfg.Server.Environment = "production"
	cfg.Auth.Secret = devSecret
	cfg.Store.Driver = DriverMemory
	cfg.Calendar.Timezone = "Nowhere/Special"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "memory store driver")
	assert.Contains(t, err.Error(), "TIMEZONE")
}

func TestValidate_FirestoreNeedsProject(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	cfg := Load()
	cfg.Store.Driver = DriverFirestore
	cfg.Store.FirebaseProjectID = ""
	cfg.Store.CredentialsPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 30*time.Minute, parseDuration("30m", time.Second))
	assert.Equal(t, 90*time.Second, parseDuration("90", time.Second))
	assert.Equal(t, 2*24*time.Hour, parseDuration("2d", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
}
