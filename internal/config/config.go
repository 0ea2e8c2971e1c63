package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the estimator service.
type Config struct {
	Port             string
	ArtifactDir      string
	LogLevel         string
	LogFormat        string
	GinMode          string
	StrictValidation bool
	RateLimitPerMin  int
	RateLimitBurst   int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	AllowedOrigins   []string
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	CacheTTL         time.Duration
	CacheMaxItems    int
}

// Load reads configuration from the environment, after merging in a .env
// file from the working directory when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		ArtifactDir:      getEnvOrDefault("ARTIFACT_DIR", "./artifacts"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "json"),
		GinMode:          getEnvOrDefault("GIN_MODE", "release"),
		StrictValidation: getEnvBool("STRICT_VALIDATION", true),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 60),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 16<<10)),
		CacheTTL:         getEnvDuration("CACHE_TTL", 15*time.Minute),
		CacheMaxItems:    getEnvInt("CACHE_MAX_ITEMS", 10000),
	}
}

// RedisEnabled reports whether a Redis backend was configured for rate limiting.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// CacheEnabled reports whether prediction responses are cached.
func (c Config) CacheEnabled() bool {
	return c.CacheTTL > 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
