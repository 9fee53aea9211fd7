package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backend names accepted by HISTORY_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type Config struct {
	Storage StorageConfig
	Server  ServerConfig
	Log     LogConfig
	Tracing TracingConfig
}

type StorageConfig struct {
	Backend    string
	Key        string
	FileDir    string
	BadgerPath string
	RedisURL   string
}

type ServerConfig struct {
	AdminPort   int
	MetricsPort int
}

type LogConfig struct {
	Level string
}

type TracingConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			Backend:    getEnv("HISTORY_BACKEND", BackendFile),
			Key:        getEnv("HISTORY_STORAGE_KEY", "tippingchain_transaction_history"),
			FileDir:    getEnv("HISTORY_FILE_DIR", "./data"),
			BadgerPath: getEnv("HISTORY_BADGER_PATH", "./data/badger"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Server: ServerConfig{
			AdminPort:   getEnvInt("ADMIN_PORT", 8080),
			MetricsPort: getEnvInt("METRICS_PORT", 9090),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTLP_INSECURE", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendBadger, BackendRedis:
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of memory, file, badger, redis (got %q)", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("HISTORY_STORAGE_KEY is required")
	}
	if c.Storage.Backend == BackendFile && c.Storage.FileDir == "" {
		return fmt.Errorf("HISTORY_FILE_DIR is required for the file backend")
	}
	if c.Storage.Backend == BackendBadger && c.Storage.BadgerPath == "" {
		return fmt.Errorf("HISTORY_BADGER_PATH is required for the badger backend")
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the redis backend")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
