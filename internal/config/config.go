package config

import (
	"os"
	"strconv"

	"tabstat/domain/stats"
	"tabstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Stats StatsConfig
	Log   LogConfig
}

// StatsConfig holds the defaults of a statistics run
type StatsConfig struct {
	Round           int
	Jobs            int
	PreferDMY       bool
	DatesWhitelist  string
	MinParallelRows int64
	MaxValues       int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// MaxRound bounds the rounding precision; float64 carries ~17 significant digits.
const MaxRound = 16

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Stats: *loadStatsConfig(),
		Log:   *loadLogConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadStatsConfig() *StatsConfig {
	return &StatsConfig{
		Round:           getEnvIntOrDefault("TABSTAT_ROUND", 4),
		Jobs:            getEnvIntOrDefault("TABSTAT_JOBS", 0),
		PreferDMY:       getEnvBoolOrDefault("TABSTAT_PREFER_DMY", false),
		DatesWhitelist:  getEnvOrDefault("TABSTAT_DATES_WHITELIST", stats.DefaultDatesWhitelist),
		MinParallelRows: getEnvInt64OrDefault("TABSTAT_MIN_PARALLEL_ROWS", 10000),
		MaxValues:       getEnvIntOrDefault("TABSTAT_MAX_VALUES", 0),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "WARN"),
	}
}

func validateConfig(config *Config) error {
	s := config.Stats
	if s.Round < 0 || s.Round > MaxRound {
		return errors.ConfigInvalid("TABSTAT_ROUND must be between 0 and " + strconv.Itoa(MaxRound))
	}
	if s.Jobs < 0 {
		return errors.ConfigInvalid("TABSTAT_JOBS must not be negative")
	}
	if s.MinParallelRows < 0 {
		return errors.ConfigInvalid("TABSTAT_MIN_PARALLEL_ROWS must not be negative")
	}
	if s.MaxValues < 0 {
		return errors.ConfigInvalid("TABSTAT_MAX_VALUES must not be negative")
	}
	return nil
}

// Options turns the configured defaults into run options. Date inference is
// left off; the CLI switches it on per run.
func (c *Config) Options() stats.Options {
	opts := stats.DefaultOptions()
	opts.Round = c.Stats.Round
	opts.Workers = c.Stats.Jobs
	opts.PreferDayFirst = c.Stats.PreferDMY
	opts.MinParallelRows = c.Stats.MinParallelRows
	opts.MaxValues = c.Stats.MaxValues
	return opts
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
