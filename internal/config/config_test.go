package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "STORE_DRIVER", "DATABASE_URL", "MIGRATE_ON_START",
		"MONGODB_URI", "MONGODB_DATABASE", "REDIS_URL", "JWT_SECRET", "JWT_TTL", "ALLOWED_ORIGINS",
		"RATE_LIMIT_RPM", "ESCALATE_AFTER_DAYS", "ESCALATION_INTERVAL", "STUDENT_ACTION_SCOPE",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "hostel_platform", cfg.MongoDatabase)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitRPM)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 7*24*time.Hour, cfg.EscalateAfter())
	assert.Equal(t, "own", cfg.StudentActionScope)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://hostel.example.com, ,https://admin.example.com")
	t.Setenv("ESCALATE_AFTER_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://hostel.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Zero(t, cfg.EscalateAfter())
}

func TestLoad_Validation(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver": {"ENVIRONMENT": "development", "STORE_DRIVER": "sqlite"},
		"prod default secret": {
			"ENVIRONMENT": "production", "STORE_DRIVER": "memory", "JWT_SECRET": "",
		},
		"prod postgres without url": {
			"ENVIRONMENT": "production", "STORE_DRIVER": "postgres", "JWT_SECRET": "s3cret", "DATABASE_URL": "",
		},
		"prod mongo without uri": {
			"ENVIRONMENT": "production", "STORE_DRIVER": "mongo", "JWT_SECRET": "s3cret", "MONGODB_URI": "",
		},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{Environment: "production", LogLevel: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}
