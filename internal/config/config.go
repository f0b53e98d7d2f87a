package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the journaling companion service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// StateTTL bounds how long a conversation record survives without
	// being touched. A day keeps yesterday's session out of today's.
	StateTTL        time.Duration
	JanitorInterval time.Duration
	DatabaseURL     string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	MemoryServiceURL string
	MemoryAPIKey     string
	MemoryTimeout    time.Duration

	MaxRegenerations int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "wisp"),
		AllowAnyOrigin:   false,
		StateTTL:         24 * time.Hour,
		JanitorInterval:  time.Minute,
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		OpenAIAPIKey:     envTrimmed("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    envTrimmed("OPENAI_BASE_URL"),
		MemoryServiceURL: envTrimmed("MEMORY_SERVICE_URL"),
		MemoryAPIKey:     envTrimmed("MEMORY_SERVICE_API_KEY"),
		MemoryTimeout:    10 * time.Second,
		MaxRegenerations: 2,
		ShutdownTimeout:  15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StateTTL, err = durationFromEnv("APP_STATE_TTL", cfg.StateTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTimeout, err = durationFromEnv("MEMORY_SERVICE_TIMEOUT", cfg.MemoryTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRegenerations, err = intFromEnv("APP_MAX_REGENERATIONS", cfg.MaxRegenerations)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.StateTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_STATE_TTL must be at least 1m")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("APP_JANITOR_INTERVAL must be positive")
	}
	if cfg.MemoryTimeout <= 0 {
		return Config{}, fmt.Errorf("MEMORY_SERVICE_TIMEOUT must be positive")
	}
	if cfg.MaxRegenerations < 0 {
		return Config{}, fmt.Errorf("APP_MAX_REGENERATIONS must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
