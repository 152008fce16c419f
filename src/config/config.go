package config

import (
	"fmt"
	"os"

	"floorsheet-observer/src/models"

	"gopkg.in/yaml.v3"
)

// Canonical store file names. The CLI flags default to these.
const (
	DefaultRawPath         = "public/raw_floorsheet.parquet"
	DefaultDateSummaryPath = "public/date_summarized_floorsheet.parquet"
	DefaultCombinedPath    = "public/summarized_floorsheet.parquet"
	DefaultRetentionDays   = 365
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Storage.DBType == "" {
		c.Storage.DBType = "parquet"
	}
	if c.Storage.RawPath == "" {
		c.Storage.RawPath = DefaultRawPath
	}
	if c.Storage.DateSummaryPath == "" {
		c.Storage.DateSummaryPath = DefaultDateSummaryPath
	}
	if c.Storage.CombinedPath == "" {
		c.Storage.CombinedPath = DefaultCombinedPath
	}
	if c.Retention.Days == 0 {
		c.Retention.Days = DefaultRetentionDays
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (only checked when a port is set; the
	// batch stages run without the HTTP surface)
	if c.Port != 0 && (c.Port <= 1024 || c.Port > 65535) {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "parquet":
		// Paths defaulted above
	case "sqlite", "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("db_connection_string cannot be empty for %s", c.Storage.DBType)
		}
	default:
		return fmt.Errorf("unknown db_type: %s", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.DelayMinMs < 0 || c.Network.DelayMaxMs < c.Network.DelayMinMs {
		return fmt.Errorf("invalid request delay range [%d, %d]", c.Network.DelayMinMs, c.Network.DelayMaxMs)
	}

	// Validate Source configuration
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base_url cannot be empty")
	}
	if c.Source.MaxPages < 0 {
		return fmt.Errorf("source max_pages cannot be negative")
	}

	// Validate Retention
	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention days must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
