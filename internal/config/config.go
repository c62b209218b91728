package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Data source backends.
const (
	DataSourceMemory   = "memory"
	DataSourcePostgres = "postgres"
	DataSourceElastic  = "elastic"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// Data source
	DataSource    string
	DatasetPath   string
	DatabaseURL   string
	NotifyChannel string
	DefaultScope  string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
	CacheTTL      time.Duration

	// Elasticsearch
	ElasticAddresses   []string
	ElasticUsername    string
	ElasticPassword    string
	ElasticIndexPrefix string

	// Live sessions
	LiveEventBuffer  int
	LivePingInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataSource:    strings.ToLower(strings.TrimSpace(getEnv("DATA_SOURCE", DataSourceMemory))),
		DatasetPath:   getEnv("DATASET_PATH", "data/dataset.yaml"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		NotifyChannel: getEnv("NOTIFY_CHANNEL", "crm_changes"),
		DefaultScope:  strings.ToLower(getEnv("DEFAULT_SCOPE", "client")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),

		ElasticAddresses:   getEnvAsList("ELASTIC_ADDRESSES", nil),
		ElasticUsername:    getEnv("ELASTIC_USERNAME", ""),
		ElasticPassword:    getEnv("ELASTIC_PASSWORD", ""),
		ElasticIndexPrefix: getEnv("ELASTIC_INDEX_PREFIX", "crm-"),

		LiveEventBuffer:  getEnvAsInt("LIVE_EVENT_BUFFER", 64),
		LivePingInterval: getEnvAsDuration("LIVE_PING_INTERVAL", 30*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
