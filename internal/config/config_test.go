package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()

		assert.Equal(t, "0.0.0.0", cfg.ServerHost)
		assert.Equal(t, 8080, cfg.ServerPort)
		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Empty(t, cfg.DBReadReplicaConnectionString)
		assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
		assert.Equal(t, "dynamic_secrets", cfg.MetricsNamespace)
		assert.True(t, cfg.PlanDynamicSecretEnabled)
		assert.Equal(t, 10*time.Second, cfg.ProviderProbeTimeout)
		assert.Equal(t, 30*time.Second, cfg.WorkerInterval)
		assert.Equal(t, 50, cfg.WorkerBatchSize)
		assert.Equal(t, 5, cfg.WorkerMaxRetries)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_READ_REPLICA_CONNECTION_STRING", "postgres://replica:5432/mydb")
		t.Setenv("PLAN_DYNAMIC_SECRET_ENABLED", "false")
		t.Setenv("PROVIDER_PROBE_TIMEOUT_SECONDS", "3")

		cfg := Load()

		assert.Equal(t, 9090, cfg.ServerPort)
		assert.Equal(t, "postgres://replica:5432/mydb", cfg.DBReadReplicaConnectionString)
		assert.False(t, cfg.PlanDynamicSecretEnabled)
		assert.Equal(t, 3*time.Second, cfg.ProviderProbeTimeout)
	})
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		want     string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, cfg.GetGinMode())
		})
	}
}
