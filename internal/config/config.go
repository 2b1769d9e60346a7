// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bank-ledger/internal/service"
	"bank-ledger/pkg/db" // Import db package for its Config struct
)

// Storage drivers selectable with STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort    string
	LogLevel      string
	StorageDriver string
	DB            db.Config
	AutoMigrate   bool

	BalanceService BalanceServiceConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Engine         service.Config
}

// BalanceServiceConfig points at a remote balance service. An empty URL means the local store is used.
type BalanceServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig configures the transaction cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig configures event publishing. No brokers means events are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadConfig loads configuration from environment variables, after merging a .env file if present.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	l := &loader{}
	cfg := &AppConfig{
		ServerPort:    l.str("SERVER_PORT", "8080"),
		LogLevel:      l.str("LOG_LEVEL", "info"),
		StorageDriver: strings.ToLower(l.str("STORAGE_DRIVER", StoragePostgres)),
		DB: db.Config{
			Host:     l.str("DB_HOST", "localhost"),
			Port:     l.integer("DB_PORT", 5432),
			User:     l.str("DB_USER", "user"),
			Password: l.str("DB_PASSWORD", "password"),
			DBName:   l.str("DB_NAME", "ledgerdb"),
			SSLMode:  l.str("DB_SSLMODE", "disable"),
		},
		AutoMigrate: l.boolean("DB_AUTO_MIGRATE", true),
		BalanceService: BalanceServiceConfig{
			URL:     l.str("BALANCE_SERVICE_URL", ""),
			Timeout: l.duration("BALANCE_SERVICE_TIMEOUT", 3*time.Second),
		},
		Redis: RedisConfig{
			Addr:     l.str("REDIS_ADDR", ""),
			Password: l.str("REDIS_PASSWORD", ""),
			DB:       l.integer("REDIS_DB", 0),
			TTL:      l.duration("CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: l.list("KAFKA_BROKERS"),
			Topic:   l.str("KAFKA_TOPIC", "transaction-events"),
		},
		Engine: service.Config{
			MaxRetries:           l.integer("ENGINE_MAX_RETRIES", 3),
			RetryInterval:        l.duration("ENGINE_RETRY_INTERVAL", 25*time.Millisecond),
			OperationTimeout:     l.duration("ENGINE_OPERATION_TIMEOUT", 5*time.Second),
			MaxReferenceAttempts: l.integer("REFERENCE_MAX_ATTEMPTS", 5),
		},
	}
	if l.err != nil {
		return nil, l.err
	}

	if cfg.StorageDriver != StoragePostgres && cfg.StorageDriver != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: want %s or %s", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}
	if cfg.Engine.MaxRetries < 1 {
		return nil, fmt.Errorf("invalid ENGINE_MAX_RETRIES: must be at least 1, got %d", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.MaxReferenceAttempts < 1 {
		return nil, fmt.Errorf("invalid REFERENCE_MAX_ATTEMPTS: must be at least 1, got %d", cfg.Engine.MaxReferenceAttempts)
	}
	return cfg, nil
}

// loader reads typed variables and keeps the first parse error.
type loader struct {
	err error
}

func (l *loader) str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (l *loader) integer(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return v
}

func (l *loader) boolean(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return v
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	if v <= 0 {
		l.fail(key, fmt.Errorf("must be positive, got %s", raw))
		return fallback
	}
	return v
}

func (l *loader) list(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
