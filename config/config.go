/*
Package config loads the SkyZero backend configuration.

PRECEDENCE (lowest to highest):
  1. Default()
  2. YAML file (--config, or SKYZERO_CONFIG)
  3. SKYZERO_* environment variables
  4. Command-line flags (applied by cmd/skyzero)

EXAMPLE:
  server:
    port: 5000
    db_path: ./data/skyzero.db
    allowed_origins: ["http://localhost:5173"]
    refresh_interval: 1m
  report:
    service_url: ""        # empty: render PDFs in-process
    timeout: 5s
  offset_types:
    - name: Tree Planting
      unit: trees
      impact_rate: 0.025
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/emissions"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/factory"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SKYZERO_"

type Config struct {
	Server      ServerConfig             `yaml:"server"`
	Logging     LoggingConfig            `yaml:"logging"`
	Report      ReportConfig             `yaml:"report"`
	Telemetry   TelemetryConfig          `yaml:"telemetry"`
	Emissions   EmissionsConfig          `yaml:"emissions"`
	OffsetTypes []factory.OffsetTypeJSON `yaml:"offset_types"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	DBPath          string        `yaml:"db_path"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// ExportRatePerMinute limits report exports per client IP.
	ExportRatePerMinute int           `yaml:"export_rate_per_minute"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

type ReportConfig struct {
	// ServiceURL of a remote document-generation service. Empty renders
	// PDFs in-process.
	ServiceURL string        `yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	// FeedURL is read by CLI commands that talk to a running server.
	FeedURL string `yaml:"feed_url"`
}

// EmissionsConfig overrides emission factors and seed activity amounts per
// source name.
type EmissionsConfig struct {
	Factors    map[string]float64 `yaml:"factors"`
	Activities map[string]float64 `yaml:"activities"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:   5000,
			DBPath: "skyzero.db",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
			RefreshInterval:     time.Minute,
			ExportRatePerMinute: 12,
			ShutdownTimeout:     10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Report:  ReportConfig{Timeout: 5 * time.Second},
		Telemetry: TelemetryConfig{
			FeedURL: "http://localhost:5000/api/total_emissions",
		},
	}
}

// Load reads path (optional) over the defaults and applies environment
// overrides. A missing file is an error only when path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookupEnv("DB_PATH"); ok {
		c.Server.DBPath = v
	}
	if v, ok := lookupEnv("REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREFRESH_INTERVAL: %w", EnvPrefix, err)
		}
		c.Server.RefreshInterval = d
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv("REPORT_SERVICE_URL"); ok {
		c.Report.ServiceURL = v
	}
	if v, ok := lookupEnv("REPORT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREPORT_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Report.Timeout = d
	}
	if v, ok := lookupEnv("FEED_URL"); ok {
		c.Telemetry.FeedURL = v
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	return v, ok && v != ""
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, errors.New("server.db_path is empty"))
	}
	if c.Server.RefreshInterval < 0 {
		errs = append(errs, errors.New("server.refresh_interval is negative"))
	}
	if c.Report.Timeout < 0 {
		errs = append(errs, errors.New("report.timeout is negative"))
	}
	for name := range c.Emissions.Factors {
		if name == "" {
			errs = append(errs, errors.New("emissions.factors has an empty source name"))
		}
	}
	return errors.Join(errs...)
}

// EmissionFactors returns the default factors with configured overrides.
// Unknown source names add new sources.
func (c Config) EmissionFactors() emissions.Factors {
	factors := emissions.DefaultFactors()
	for name, v := range c.Emissions.Factors {
		factors[emissions.Source(name)] = decimal.NewFromFloat(v)
	}
	return factors
}

// SeedActivities returns the default seed amounts with configured overrides.
func (c Config) SeedActivities() map[emissions.Source]decimal.Decimal {
	amounts := emissions.DefaultActivities()
	for name, v := range c.Emissions.Activities {
		amounts[emissions.Source(name)] = decimal.NewFromFloat(v)
	}
	return amounts
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
