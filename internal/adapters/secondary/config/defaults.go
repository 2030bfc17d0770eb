package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// Default values shared by the defaults and the merger
const (
	DefaultHost      = "localhost"
	DefaultPort      = 5000
	DefaultOutputDir = "temp_files"
)

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	config := &entities.Config{
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("TEXDECK_HOST", DefaultHost),
			Port:            getEnvIntOrDefault("TEXDECK_PORT", DefaultPort),
			ReadTimeout:     getEnvIntOrDefault("TEXDECK_READ_TIMEOUT", 30),
			WriteTimeout:    getEnvIntOrDefault("TEXDECK_WRITE_TIMEOUT", 60),
			ShutdownTimeout: getEnvIntOrDefault("TEXDECK_SHUTDOWN_TIMEOUT", 5),
			Environment:     getEnvOrDefault("TEXDECK_ENV", "development"),
			CORSOrigins: getEnvSliceOrDefault("TEXDECK_CORS_ORIGINS", []string{
				"http://localhost:5000",
				"http://127.0.0.1:5000",
			}),
		},
		Output: entities.OutputConfig{
			Directory:              getEnvOrDefault("TEXDECK_OUTPUT_DIR", DefaultOutputDir),
			DeckName:               getEnvOrDefault("TEXDECK_DECK_NAME", "LaTeX_Presentation"),
			MaxUploadMB:            getEnvIntOrDefault("TEXDECK_MAX_UPLOAD_MB", 16),
			MaxAgeSeconds:          getEnvIntOrDefault("TEXDECK_MAX_AGE", 3600),
			CleanupIntervalSeconds: getEnvIntOrDefault("TEXDECK_CLEANUP_INTERVAL", 0),
			PDFFont:                getEnvOrDefault("TEXDECK_PDF_FONT", ""),
		},
		Translation: entities.TranslationConfig{
			File: getEnvOrDefault("TEXDECK_TRANSLATIONS", ""),
		},
		Watcher: entities.WatcherConfig{
			IntervalMs: 200,
			DebounceMs: 500,
		},
		Logging: entities.LoggingConfig{
			Level:   getEnvOrDefault("TEXDECK_LOG_LEVEL", "info"),
			Verbose: getEnvBoolOrDefault("TEXDECK_LOG_VERBOSE", false),
		},
	}

	return config
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault returns environment variable as slice or default
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
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
