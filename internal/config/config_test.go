package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("JWT_SECRET", strings.Repeat("a", 32))
	t.Setenv("REFRESH_SECRET", strings.Repeat("b", 32))
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"SERVER_PORT", "LOG_LEVEL", "REDIS_ADDR", "KAFKA_BROKERS", "ES_URL", "ES_INDEX", "LOCKOUT_MAX_ATTEMPTS", "LOCKOUT_WINDOW", "EVENT_BUFFER", "CSRF_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "products", cfg.ESIndex)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, 256, cfg.EventBuffer)
	require.Equal(t, 5, cfg.LockoutMaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.LockoutWindow)
	require.True(t, cfg.CSRFEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "3")
	t.Setenv("LOCKOUT_WINDOW", "1m")
	t.Setenv("CSRF_ENABLED", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.ServerPort)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 3, cfg.LockoutMaxAttempts)
	require.Equal(t, time.Minute, cfg.LockoutWindow)
	require.False(t, cfg.CSRFEnabled)
}

func TestFromEnvRequired(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"short refresh secret", map[string]string{"REFRESH_SECRET": "short"}, "REFRESH_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
