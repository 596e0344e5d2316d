package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: ANALYZE_CONCURRENCY must be 1-100")
	errUploadLimitOutOfRange = errors.New("config: MAX_UPLOAD_BYTES must be between 1 KiB and 1 GiB")
	errEmptyDir              = errors.New("config: DATA_DIR and UPLOAD_DIR must not be empty")
	errNonPositiveDuration   = errors.New("config: durations must be positive")
)

const (
	minUploadBytes = 1 << 10
	maxUploadBytes = 1 << 30
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port               string
	LogLevel           string
	DataDir            string
	UploadDir          string
	MaxUploadBytes     int64
	AnalyzeConcurrency int
	DatabaseURL        string
	AITimeout          time.Duration
	AIAllowPrivate     bool
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		DataDir:            getEnv("DATA_DIR", "data"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 16<<20)),
		AnalyzeConcurrency: getEnvAsInt("ANALYZE_CONCURRENCY", 4),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AITimeout:          getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIAllowPrivate:     getEnvAsBool("AI_ALLOW_PRIVATE", false),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.AnalyzeConcurrency < 1 || c.AnalyzeConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.AnalyzeConcurrency)
	}

	if c.MaxUploadBytes < minUploadBytes || c.MaxUploadBytes > maxUploadBytes {
		return fmt.Errorf("%w: got %d", errUploadLimitOutOfRange, c.MaxUploadBytes)
	}

	if c.DataDir == "" || c.UploadDir == "" {
		return errEmptyDir
	}

	if c.AITimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: AI_TIMEOUT=%s SHUTDOWN_TIMEOUT=%s", errNonPositiveDuration, c.AITimeout, c.ShutdownTimeout)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}
