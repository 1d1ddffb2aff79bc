// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port           string
	CatalogPath    string
	TLEPath        string
	GeoidPath      string
	TerrainPath    string
	DatabaseURL    string
	HistoryLimit   int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	StreamInterval time.Duration
	FontPath       string
	DefaultLang    string

	TracingEnabled     bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampleRatio float64
}

// Load reads a .env file from the working directory when present, then
// builds the configuration from environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	var errs []error

	historyLimit, err := getEnvInt("HISTORY_LIMIT", 500)
	errs = append(errs, err)
	streamInterval, err := getEnvDuration("STREAM_INTERVAL", 5*time.Second)
	errs = append(errs, err)
	tracingEnabled, err := getEnvBool("TRACING_ENABLED", false)
	errs = append(errs, err)
	sampleRatio, err := getEnvFloat("TRACING_SAMPLE_RATIO", 1.0)
	errs = append(errs, err)

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		TLEPath:            getEnv("TLE_PATH", ""),
		GeoidPath:          getEnv("GEOID_PATH", ""),
		TerrainPath:        getEnv("TERRAIN_PATH", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		HistoryLimit:       historyLimit,
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		StreamInterval:     streamInterval,
		FontPath:           getEnv("FONT_PATH", ""),
		DefaultLang:        getEnv("DEFAULT_LANG", "en"),
		TracingEnabled:     tracingEnabled,
		TracingExporter:    strings.ToLower(getEnv("TRACING_EXPORTER", "stdout")),
		OTLPEndpoint:       getEnv("OTLP_ENDPOINT", ""),
		TracingSampleRatio: sampleRatio,
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the parsers alone cannot.
func (c Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.StreamInterval < 100*time.Millisecond {
		return fmt.Errorf("STREAM_INTERVAL must be at least 100ms, got %s", c.StreamInterval)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be within [0, 1], got %v", c.TracingSampleRatio)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
