package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBPath           string
	LogLevel         string
	SweepSchedule    string
	SchedulerEnabled bool
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	enabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("SCHEDULER_ENABLED must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "credit.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@daily"),
		SchedulerEnabled: enabled,
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DB_PATH is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
