package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for busboard.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LTA      LTAConfig      `yaml:"lta"`
	TRMNL    TRMNLConfig    `yaml:"trmnl"`
	Stops    StopsConfig    `yaml:"stops"`
	Display  DisplayConfig  `yaml:"display"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig contains HTTP timeout settings in seconds.
type TimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LTAConfig contains LTA DataMall API settings.
type LTAConfig struct {
	// BaseURL is the DataMall OData service root.
	BaseURL string `yaml:"base_url"`

	// AccountKey is the DataMall API key sent on every arrivals request.
	AccountKey string `yaml:"account_key"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// TRMNLConfig contains TRMNL hub OAuth settings.
type TRMNLConfig struct {
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Timeout      int    `yaml:"timeout"`
}

// StopsConfig contains the system-wide default bus stop codes.
// A device falls back to these for any slot it has not configured.
type StopsConfig struct {
	DefaultA string `yaml:"default_a"`
	DefaultB string `yaml:"default_b"`
	DefaultC string `yaml:"default_c"`
}

// DisplayConfig contains rendering settings.
type DisplayConfig struct {
	// MaxServices caps the number of service lines per stop summary.
	MaxServices int `yaml:"max_services"`
}

// InfluxDBConfig contains optional render telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BUSBOARD_SECTION_KEY
// For example: BUSBOARD_DATABASE_PATH, BUSBOARD_LTA_ACCOUNT_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The default stop codes cover the original deployment (Opp National
// Gallery, Raffles City, YMCA) so a fresh install renders something
// useful before the operator saves their own stops.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: TimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/busboard.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		LTA: LTAConfig{
			BaseURL: "https://datamall2.mytransport.sg/ltaodataservice",
			Timeout: 10,
		},
		TRMNL: TRMNLConfig{
			TokenURL: "https://usetrmnl.com/oauth/token",
			Timeout:  10,
		},
		Stops: StopsConfig{
			DefaultA: "01109",
			DefaultB: "01219",
			DefaultC: "02151",
		},
		Display: DisplayConfig{
			MaxServices: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BUSBOARD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("BUSBOARD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	// Database
	if v := os.Getenv("BUSBOARD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// LTA - the account key is a secret, always prefer the environment
	if v := os.Getenv("BUSBOARD_LTA_ACCOUNT_KEY"); v != "" {
		cfg.LTA.AccountKey = v
	}

	// TRMNL OAuth credentials
	if v := os.Getenv("BUSBOARD_TRMNL_CLIENT_ID"); v != "" {
		cfg.TRMNL.ClientID = v
	}
	if v := os.Getenv("BUSBOARD_TRMNL_CLIENT_SECRET"); v != "" {
		cfg.TRMNL.ClientSecret = v
	}

	// Default stops
	if v := os.Getenv("BUSBOARD_STOPS_DEFAULT_A"); v != "" {
		cfg.Stops.DefaultA = v
	}
	if v := os.Getenv("BUSBOARD_STOPS_DEFAULT_B"); v != "" {
		cfg.Stops.DefaultB = v
	}
	if v := os.Getenv("BUSBOARD_STOPS_DEFAULT_C"); v != "" {
		cfg.Stops.DefaultC = v
	}

	// InfluxDB
	if v := os.Getenv("BUSBOARD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.LTA.BaseURL == "" {
		errs = append(errs, "lta.base_url is required")
	}
	if c.LTA.Timeout <= 0 {
		errs = append(errs, "lta.timeout must be positive")
	}

	if c.TRMNL.TokenURL == "" {
		errs = append(errs, "trmnl.token_url is required")
	}

	if c.Stops.DefaultA == "" || c.Stops.DefaultB == "" || c.Stops.DefaultC == "" {
		errs = append(errs, "stops.default_a/b/c are all required")
	}

	if c.Display.MaxServices <= 0 {
		errs = append(errs, "display.max_services must be positive")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not recognised", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
