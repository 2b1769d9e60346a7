// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env file
	for _, key := range []string{"SERVER_PORT", "STORAGE_DRIVER", "DB_PORT", "BALANCE_SERVICE_URL", "REDIS_ADDR", "KAFKA_BROKERS", "ENGINE_MAX_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.BalanceService.URL)
	assert.Equal(t, 3*time.Second, cfg.BalanceService.Timeout)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "transaction-events", cfg.Kafka.Topic)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.Engine.RetryInterval)
	assert.Equal(t, 5*time.Second, cfg.Engine.OperationTimeout)
	assert.Equal(t, 5, cfg.Engine.MaxReferenceAttempts)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ENGINE_MAX_RETRIES", "7")
	t.Setenv("ENGINE_OPERATION_TIMEOUT", "750ms")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Engine.MaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.Engine.OperationTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DB_PORT", "not-a-port", "invalid DB_PORT"},
		{"ENGINE_RETRY_INTERVAL", "soon", "invalid ENGINE_RETRY_INTERVAL"},
		{"ENGINE_OPERATION_TIMEOUT", "-1s", "invalid ENGINE_OPERATION_TIMEOUT"},
		{"DB_AUTO_MIGRATE", "maybe", "invalid DB_AUTO_MIGRATE"},
		{"STORAGE_DRIVER", "mongo", "invalid STORAGE_DRIVER"},
		{"ENGINE_MAX_RETRIES", "0", "invalid ENGINE_MAX_RETRIES"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
