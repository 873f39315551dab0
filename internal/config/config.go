package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Record store. An empty DatabaseURL selects the in-memory store seeded from SeedFile.
	DatabaseURL string
	SeedFile    string

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	ResponseCacheTTL time.Duration

	AuthJWTSecret      string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Performance log side channel: postgres, dynamodb, sqs or none.
	PerfLogBackend  string
	PerfLogTable    string
	PerfLogQueueURL string
	PerfLogTimeout  time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SeedFile:    getEnv("SEED_FILE", ""),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		ResponseCacheTTL: getEnvAsDuration("RESPONSE_CACHE_TTL", 30*time.Second),

		AuthJWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		PerfLogBackend:  strings.ToLower(strings.TrimSpace(getEnv("PERF_LOG_BACKEND", "none"))),
		PerfLogTable:    getEnv("PERF_LOG_TABLE", "performance_logs"),
		PerfLogQueueURL: getEnv("PERF_LOG_QUEUE_URL", ""),
		PerfLogTimeout:  getEnvAsDuration("PERF_LOG_TIMEOUT", 2*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
