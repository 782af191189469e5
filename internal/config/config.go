// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ServiceName     string
	Env             string
	LogLevel        string
	HTTPPort        string
	APIBaseURL      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StorageDriver string
	StorageKey    string
	StorageTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MongoURI      string
	MongoDBName   string

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string

	MockAPIPort string
	MockAPISeed string
}

func Load() (*Config, error) {
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	storageTTL, err := getEnvDuration("STORAGE_TTL", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName:     getEnv("SERVICE_NAME", "storefront-cart"),
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3333"), "/"),
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageSQLite)),
		StorageKey:    getEnv("STORAGE_KEY", "@RocketShoes:cart"),
		StorageTTL:    storageTTL,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "./cart.db"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "cart-updates"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		MockAPIPort: getEnv("MOCKAPI_PORT", "3333"),
		MockAPISeed: getEnv("MOCKAPI_SEED", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageRedis, StorageSQLite, StorageMongo:
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("%w: STORAGE_KEY must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// bare numbers are seconds
		secs, convErr := strconv.Atoi(value)
		if convErr != nil {
			return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
		}
		d = time.Duration(secs) * time.Second
	}
	return d, nil
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
