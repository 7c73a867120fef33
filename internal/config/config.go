// Package config provides configuration for the clickstream generator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/export"
	"github.com/arkilian/clickgen/internal/simulate"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "CLICKGEN_"

// DefaultBucket is the bucket the reference run writes to.
const DefaultBucket = "databricks-learning-clickstream"

// Storage types.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the configuration of one generation run.
type Config struct {
	// Simulation sizes and seeding
	Simulation SimulationConfig `json:"simulation" yaml:"simulation" envPrefix:"SIMULATION_"`

	// Export format and layout
	Export ExportConfig `json:"export" yaml:"export" envPrefix:"EXPORT_"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage" envPrefix:"STORAGE_"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging" envPrefix:"LOG_"`

	// Metrics configuration
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
}

// SimulationConfig holds the simulation sizes.
type SimulationConfig struct {
	NumUsers            int `json:"num_users" yaml:"num_users" env:"NUM_USERS"`
	NumSessionsPerUser  int `json:"num_sessions_per_user" yaml:"num_sessions_per_user" env:"NUM_SESSIONS_PER_USER"`
	NumEventsPerSession int `json:"num_events_per_session" yaml:"num_events_per_session" env:"NUM_EVENTS_PER_SESSION"`

	// Seed makes a run reproducible; nil draws from OS entropy
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty" env:"SEED"`

	// Lookback is the width of the timestamp window ending at now
	Lookback Duration `json:"lookback" yaml:"lookback" env:"LOOKBACK"`
}

// ExportConfig holds export configuration.
type ExportConfig struct {
	// Format is the file format: parquet, sqlite
	Format string `json:"format" yaml:"format" env:"FORMAT"`

	// Compression is the codec: snappy, zstd, gzip, none
	Compression string `json:"compression" yaml:"compression" env:"COMPRESSION"`

	// Prefix is prepended to the time-partitioned object key
	Prefix string `json:"prefix" yaml:"prefix" env:"PREFIX"`

	// WorkDir holds encoded files before upload
	WorkDir string `json:"work_dir" yaml:"work_dir" env:"WORK_DIR"`

	// Sidecar enables the .meta.json upload
	Sidecar bool `json:"sidecar" yaml:"sidecar" env:"SIDECAR"`

	// PreviewRows is the number of rows printed before export
	PreviewRows int `json:"preview_rows" yaml:"preview_rows" env:"PREVIEW_ROWS"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type" env:"TYPE"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path" env:"PATH"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3" envPrefix:"S3_"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket" env:"BUCKET"`

	// Region is the AWS region; empty uses the SDK default chain
	Region string `json:"region" yaml:"region" env:"REGION"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint" env:"ENDPOINT"`

	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style" env:"USE_PATH_STYLE"`

	// MaxRetries is the number of upload retries after the first attempt
	MaxRetries int `json:"max_retries" yaml:"max_retries" env:"MAX_RETRIES"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// TextfilePath receives the run's metrics in Prometheus text format
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" env:"TEXTFILE_PATH"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumUsers:            1000,
			NumSessionsPerUser:  12,
			NumEventsPerSession: 20,
			Lookback:            Duration(simulate.DefaultLookback),
		},
		Export: ExportConfig{
			Format:      export.FormatParquet,
			Compression: export.CompressionSnappy,
			PreviewRows: 5,
		},
		Storage: StorageConfig{
			Type: StorageS3,
			S3: S3Config{
				Bucket: DefaultBucket,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Counts returns the simulation sizes.
func (c *Config) Counts() simulate.Counts {
	return simulate.Counts{
		Users:            c.Simulation.NumUsers,
		SessionsPerUser:  c.Simulation.NumSessionsPerUser,
		EventsPerSession: c.Simulation.NumEventsPerSession,
	}
}

// Resolve fills in derived defaults.
func (c *Config) Resolve() {
	if c.Export.WorkDir == "" {
		c.Export.WorkDir = filepath.Join(os.TempDir(), "clickgen")
	}
	if c.Storage.Type == StorageLocal && c.Storage.Path == "" {
		c.Storage.Path = "./data/clickgen"
	}
	if c.Simulation.Lookback == 0 {
		c.Simulation.Lookback = Duration(simulate.DefaultLookback)
	}
	c.Export.Format = strings.ToLower(c.Export.Format)
	c.Export.Compression = strings.ToLower(c.Export.Compression)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Counts().Validate(); err != nil {
		return clickerr.NewConfigError("invalid simulation sizes", err)
	}

	if c.Simulation.Lookback < 0 {
		return invalid("simulation.lookback must not be negative, got %s", c.Simulation.Lookback)
	}

	if _, err := export.NewEncoder(c.Export.Format, c.Export.Compression); err != nil {
		return clickerr.NewConfigError("invalid export settings", err)
	}

	if c.Export.PreviewRows < 0 {
		return invalid("export.preview_rows must not be negative, got %d", c.Export.PreviewRows)
	}

	if c.Storage.Type != StorageLocal && c.Storage.Type != StorageS3 {
		return invalid("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return invalid("s3.bucket is required when storage type is s3")
	}

	if c.Storage.S3.MaxRetries < 0 {
		return invalid("s3.max_retries must not be negative, got %d", c.Storage.S3.MaxRetries)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return clickerr.NewConfigError(fmt.Sprintf(format, args...), nil)
}

// LoadFromFile loads configuration from a YAML or JSON file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad, "failed to read config file", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad, "failed to parse YAML config", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad, "failed to parse JSON config", err)
		}
	default:
		return nil, clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad,
			fmt.Sprintf("unsupported config file format: %s", ext), nil)
	}

	return cfg, nil
}

// LoadFromEnv overrides cfg from CLICKGEN_* environment variables. Variables
// in envFiles (default ".env") are loaded first when the files exist; real
// environment variables take precedence over them.
func LoadFromEnv(cfg *Config, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad,
				fmt.Sprintf("failed to load %s", f), err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return clickerr.Wrap(clickerr.ErrCategoryConfig, clickerr.CodeConfigLoad, "failed to parse environment", err)
	}
	return nil
}

// Override adjusts a loaded configuration, e.g. from command line flags.
type Override func(*Config)

// WithSeed sets the simulation seed when seed is non-nil.
func WithSeed(seed *uint64) Override {
	return func(c *Config) {
		if seed != nil {
			c.Simulation.Seed = seed
		}
	}
}

// Load builds the run configuration: defaults, then the optional file at
// path, then the environment, then overrides in order.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
