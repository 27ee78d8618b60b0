package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// EnvPrefix prefixes every environment variable read by coursekit
const EnvPrefix = "COURSEKIT_"

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("HOST", "localhost"),
			Port:            getEnvIntOrDefault("PORT", 8000),
			ReadTimeout:     getEnvIntOrDefault("READ_TIMEOUT", 30),
			WriteTimeout:    getEnvIntOrDefault("WRITE_TIMEOUT", 30),
			ShutdownTimeout: getEnvIntOrDefault("SHUTDOWN_TIMEOUT", 5),
			Environment:     getEnvOrDefault("ENVIRONMENT", "development"),
			CORSOrigins: getEnvSliceOrDefault("CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			}),
			MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 32),
			RateLimit:   getEnvIntOrDefault("RATE_LIMIT", 300),
		},
		Content: entities.ContentConfig{
			Root:           getEnvOrDefault("CONTENT_ROOT", "."),
			HighlightStyle: getEnvOrDefault("HIGHLIGHT_STYLE", "github"),
			SanitizeHTML:   getEnvBoolOrDefault("SANITIZE_HTML", false),
			Watch:          getEnvBoolOrDefault("WATCH", true),
			DebounceMs:     getEnvIntOrDefault("WATCH_DEBOUNCE", 300),
		},
		Sessions: entities.SessionsConfig{
			TTLMinutes:        getEnvIntOrDefault("SESSION_TTL", 24*60),
			PurgeIntervalMins: getEnvIntOrDefault("SESSION_PURGE_INTERVAL", 15),
		},
		Metrics: entities.MetricsConfig{
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
			Path:    getEnvOrDefault("METRICS_PATH", "/metrics"),
		},
		Logging: entities.LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Verbose:    getEnvBoolOrDefault("LOG_VERBOSE", false),
			JSONFormat: getEnvBoolOrDefault("LOG_JSON", false),
			File:       getEnvOrDefault("LOG_FILE", ""),
		},
	}
}

func getEnv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := getEnv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := getEnv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault returns a comma separated environment variable as a
// slice or default
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := getEnv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
