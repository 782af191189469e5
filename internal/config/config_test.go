package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "API_BASE_URL", "REQUEST_TIMEOUT", "STORAGE_DRIVER", "STORAGE_KEY", "KAFKA_BROKERS", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:3333", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, "@RocketShoes:cart", cfg.StorageKey)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local:3333/")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("STORAGE_TTL", "3600")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.local:3333", cfg.APIBaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.StorageTTL)
	assert.Equal(t, StorageRedis, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"unknown driver":   {"STORAGE_DRIVER", "postgres"},
		"bad duration":     {"REQUEST_TIMEOUT", "soon"},
		"negative timeout": {"REQUEST_TIMEOUT", "-1s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
