// Package config loads the application configuration from defaults, an
// optional YAML file and BUSSCHEDULE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wilhg/busschedule/pkg/errmodel"
)

// DefaultDatabaseURL keeps the schedule in a shared in-memory SQLite database.
const DefaultDatabaseURL = "sqlite:file:bus_schedule?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_fk=1"

// Config is the application configuration.
type Config struct {
	// Environment selects production or development logging.
	Environment string `yaml:"environment" validate:"oneof=development production"`
	// DatabaseURL selects the backend: sqlite:..., postgres://... or memory:.
	DatabaseURL string `yaml:"database_url" validate:"required"`
	// DatasetPath overrides the bundled dataset with a YAML file on disk.
	DatasetPath string `yaml:"dataset_path"`
	// QueryWorkers bounds concurrent query execution.
	QueryWorkers int `yaml:"query_workers" validate:"min=1,max=64"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// Tracing enables the stdout trace exporter.
	Tracing bool `yaml:"tracing"`
	// TimeZone is the IANA zone arrival times are displayed in.
	TimeZone string `yaml:"time_zone" validate:"omitempty,timezone"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment:  "development",
		DatabaseURL:  DefaultDatabaseURL,
		QueryWorkers: 4,
		LogLevel:     "info",
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errmodel.System("config_unavailable", "read config file", map[string]any{"path": path}, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errmodel.New(errmodel.CategoryValidation, "invalid_config", "decode config file", map[string]any{"path": path}, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errmodel.New(errmodel.CategoryValidation, "invalid_config", "configuration is invalid", nil, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Environment = getEnv("BUSSCHEDULE_ENV", cfg.Environment)
	cfg.DatabaseURL = getEnv("BUSSCHEDULE_DATABASE_URL", getEnv("DATABASE_URL", cfg.DatabaseURL))
	cfg.DatasetPath = getEnv("BUSSCHEDULE_DATASET", cfg.DatasetPath)
	cfg.LogLevel = strings.ToLower(getEnv("BUSSCHEDULE_LOG_LEVEL", cfg.LogLevel))
	cfg.TimeZone = getEnv("BUSSCHEDULE_TZ", cfg.TimeZone)
	if v := os.Getenv("BUSSCHEDULE_QUERY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errmodel.Validation("invalid_config", fmt.Sprintf("BUSSCHEDULE_QUERY_WORKERS=%q is not a number", v), nil)
		}
		cfg.QueryWorkers = n
	}
	if v := os.Getenv("BUSSCHEDULE_TRACING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errmodel.Validation("invalid_config", fmt.Sprintf("BUSSCHEDULE_TRACING=%q is not a boolean", v), nil)
		}
		cfg.Tracing = b
	}
	return nil
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
