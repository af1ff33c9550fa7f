// =============================================================================
// Order Export Converter - Configuration Module
// =============================================================================
//
// This module loads the main YAML configuration and applies defaults. One
// file drives a whole run: directory layout, merchant identity, the report
// window the store filter uses, and the store connection settings.
//
// Database credentials are usually kept out of the YAML; they can be
// supplied through the environment (a .env file is honored via godotenv)
// and override whatever the YAML carries.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// MainConfig holds the global application configuration, loaded from
// config.yaml.
type MainConfig struct {
	// InputDir is scanned for order exports (.txt tab-delimited, .xlsx).
	// Default: "./in"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the per-channel report pairs. It is cleared at the
	// start of every run.
	// Default: "./out"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives successfully processed exports. Failed files
	// stay in InputDir.
	// Default: "./in_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// MerchantID is written into every envelope header.
	MerchantID string `yaml:"merchant_id"`

	// ReportWindow bounds the order dates included in the reports. Both
	// bounds are strict: a record is included when its order date lies
	// strictly between Start and End.
	ReportWindow ReportWindow `yaml:"report_window"`

	// CancellationFlag is the is-buyer-requested-cancellation value a record
	// must carry to be included. The export uses literal "true"/"false".
	// Default: "false"
	CancellationFlag string `yaml:"cancellation_flag"`

	// Store selects and configures the persistence boundary.
	Store StoreConfig `yaml:"store"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// ReportWindow is the half-open-feeling but strictly-bounded date window the
// store filter applies (strictly after Start, strictly before End).
type ReportWindow struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// StoreConfig configures the order store.
type StoreConfig struct {
	// Driver picks the implementation: "postgres" or "memory".
	// Default: "postgres"
	Driver string `yaml:"driver"`

	// Collection is the collection key records are replaced under.
	// Default: "orders"
	Collection string `yaml:"collection"`

	// Postgres holds the connection settings for the postgres driver.
	Postgres PostgresSettings `yaml:"postgres"`
}

// PostgresSettings mirrors the connection parameters of the production
// store. Every value can be overridden from the environment.
type PostgresSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and environment overrides, and creates the configured
// directories.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	applyEnvOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults sets default values for any unset configuration options.
// The merchant id and the report window default to the values of the legacy
// batch this tool replaced, so an empty config reproduces its output.
func applyDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./in"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./out"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./in_archive"
	}
	if config.MerchantID == "" {
		config.MerchantID = "A2DKZN1W9ZO5KL"
	}
	if config.ReportWindow.Start.IsZero() {
		config.ReportWindow.Start = time.Date(2024, 12, 23, 13, 45, 0, 0, time.UTC)
	}
	if config.ReportWindow.End.IsZero() {
		config.ReportWindow.End = time.Date(2025, 1, 2, 17, 15, 0, 0, time.UTC)
	}
	if config.CancellationFlag == "" {
		config.CancellationFlag = "false"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.Store.Driver == "" {
		config.Store.Driver = "postgres"
	}
	if config.Store.Collection == "" {
		config.Store.Collection = "orders"
	}
	if config.Store.Postgres.Host == "" {
		config.Store.Postgres.Host = "localhost"
	}
	if config.Store.Postgres.Port == 0 {
		config.Store.Postgres.Port = 5432
	}
	if config.Store.Postgres.Database == "" {
		config.Store.Postgres.Database = "amazon_orders"
	}
	if config.Store.Postgres.Username == "" {
		config.Store.Postgres.Username = "postgres"
	}
}

// applyEnvOverrides lets the environment override the store credentials.
// A .env file next to the binary is loaded first, if present.
func applyEnvOverrides(config *MainConfig) {
	_ = godotenv.Load()

	pg := &config.Store.Postgres
	pg.Host = getEnv("POSTGRES_HOST", pg.Host)
	pg.Database = getEnv("POSTGRES_DATABASE", pg.Database)
	pg.Username = getEnv("POSTGRES_USERNAME", pg.Username)
	pg.Password = getEnv("POSTGRES_PASSWORD", pg.Password)
	pg.SSLMode = getEnv("POSTGRES_SSLMODE", pg.SSLMode)
	if port, err := strconv.Atoi(os.Getenv("POSTGRES_PORT")); err == nil {
		pg.Port = port
	}
}

// validate checks the configuration and creates the configured directories.
func validate(config *MainConfig) error {
	if !config.ReportWindow.End.After(config.ReportWindow.Start) {
		return fmt.Errorf("report_window end %s is not after start %s",
			config.ReportWindow.End.Format(time.RFC3339), config.ReportWindow.Start.Format(time.RFC3339))
	}

	switch config.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	dirs := []string{config.InputDir, config.OutputDir, config.InputArchiveDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
