// pkg/config/config.go
package config

import (
	"errors"
	"os"
)

// Config represents the application configuration
type Config struct {
	// Dataset paths
	InputPath       string
	CleanedPath     string
	DiagnosticsPath string
	SummaryPath     string

	// Logging
	LogLevel  string
	LogFormat string

	// Optional audit sink; empty disables audit recording
	AuditDatabaseURL string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		InputPath:        getEnv("INPUT_PATH", "dirty_cafe_sales.csv"),
		CleanedPath:      getEnv("CLEANED_PATH", "cleaned_cafe_sales.csv"),
		DiagnosticsPath:  getEnv("DIAGNOSTICS_PATH", "eda_report.csv"),
		SummaryPath:      getEnv("SUMMARY_PATH", "cleaning_summary.json"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		AuditDatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}

	if c.CleanedPath == "" {
		return errors.New("cleaned dataset path is required")
	}

	if c.DiagnosticsPath == "" {
		return errors.New("diagnostics path is required")
	}

	if c.SummaryPath == "" {
		return errors.New("summary path is required")
	}

	return nil
}

// AuditEnabled reports whether an audit database is configured.
func (c *Config) AuditEnabled() bool {
	return c.AuditDatabaseURL != ""
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
