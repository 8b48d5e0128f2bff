package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string

	// Upload limit for the input document, in bytes.
	MaxUploadBytes int64

	// Fixed upscale factor used to re-rasterize every page on export.
	ExportScale float64

	// Prepended to the original filename for the exported document.
	OutputPrefix string

	// Desktop window size
	WindowWidth  int
	WindowHeight int
}

const (
	DefaultMaxUploadBytes = 50 * 1024 * 1024
	DefaultExportScale    = 2.0
	DefaultOutputPrefix   = "edited_"
	maxExportScale        = 8.0
)

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		ExportScale:    getEnvFloat("EXPORT_SCALE", DefaultExportScale),
		OutputPrefix:   getEnv("OUTPUT_PREFIX", DefaultOutputPrefix),
		WindowWidth:    int(getEnvInt64("WINDOW_WIDTH", 1024)),
		WindowHeight:   int(getEnvInt64("WINDOW_HEIGHT", 768)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Environment:    "development",
		LogLevel:       "info",
		MaxUploadBytes: DefaultMaxUploadBytes,
		ExportScale:    DefaultExportScale,
		OutputPrefix:   DefaultOutputPrefix,
		WindowWidth:    1024,
		WindowHeight:   768,
	}
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ExportScale <= 0 || c.ExportScale > maxExportScale {
		return fmt.Errorf("EXPORT_SCALE must be in (0, %g], got %g", maxExportScale, c.ExportScale)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.WindowWidth, c.WindowHeight)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
