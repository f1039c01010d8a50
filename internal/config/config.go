package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Cache backends for the durable snapshot store.
const (
	CacheBackendSQLite   = "sqlite"
	CacheBackendPostgres = "postgres"
	CacheBackendNone     = "none"
)

// Config holds all configuration for the finder services
type Config struct {
	// Dataset
	DatasetURL       string        `yaml:"datasetURL" validate:"required,url"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout" validate:"gt=0"`
	WriteBackTimeout time.Duration `yaml:"writeBackTimeout" validate:"gt=0"`

	// Durable cache store
	CacheBackend string `yaml:"cacheBackend" validate:"oneof=sqlite postgres none"`
	DatabasePath string `yaml:"databasePath" validate:"required_if=CacheBackend sqlite"`
	DatabaseURL  string `yaml:"databaseURL" validate:"required_if=CacheBackend postgres"`

	// HTTP server
	Port           string   `yaml:"port" validate:"required,numeric"`
	AllowedOrigins []string `yaml:"allowedOrigins" validate:"dive,required"`

	// Offline assets
	StaticDir         string `yaml:"staticDir" validate:"omitempty,dir"`
	AssetCacheVersion int    `yaml:"assetCacheVersion" validate:"gte=1"`

	// Logging
	LogLevel  string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"logFormat" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		DatasetURL:        "http://localhost:8081/ril100.csv",
		FetchTimeout:      15 * time.Second,
		WriteBackTimeout:  500 * time.Millisecond,
		CacheBackend:      CacheBackendSQLite,
		DatabasePath:      "./data/ril100.db",
		Port:              "8081",
		AllowedOrigins:    []string{"http://localhost:5173"},
		AssetCacheVersion: 4,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// RIL100_CONFIG, and environment variables, in that order, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("RIL100_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.DatasetURL = getEnv("DATASET_URL", c.DatasetURL)
	c.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.WriteBackTimeout = getEnvDuration("WRITE_BACK_TIMEOUT", c.WriteBackTimeout)

	c.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", c.CacheBackend))
	c.DatabasePath = getEnv("SQLITE_DATABASE", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.Port = getEnv("PORT", c.Port)
	c.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)

	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.AssetCacheVersion = getEnvInt("ASSET_CACHE_VERSION", c.AssetCacheVersion)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
