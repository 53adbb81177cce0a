// Package config loads the application configuration from a yaml file with
// environment-variable overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file is looked up when no --config flag
// is given.
const DefaultPath = "olist-bi.yaml"

// Config is the full application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Facts   FactsConfig   `yaml:"facts"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the dataset files.
type DataConfig struct {
	Backend string `yaml:"backend"` // "local" | "s3" | "gcs"
	Dir     string `yaml:"dir"`     // local backend
	Bucket  string `yaml:"bucket"`  // s3/gcs backends
	Prefix  string `yaml:"prefix"`  // key prefix within the bucket

	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"` // custom endpoint for MinIO/R2/B2
}

// FactsConfig holds the facts-build parameters owned by the top-level
// caller. The cap is threaded explicitly into every build; there is no
// global session state.
type FactsConfig struct {
	MaxOrders int `yaml:"max_orders"` // 0 = no cap
	Year      int `yaml:"year"`       // 0 = no year filter
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" | "text"
	Level  string `yaml:"level"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Data: DataConfig{
			Backend: "local",
			Dir:     "./data",
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load reads the yaml config at path and applies environment overrides.
// A missing file is not an error: defaults plus environment are enough to
// run against ./data.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoad is Load with a fatal exit on error, for command wiring.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	return cfg
}

// Validate checks backend/bucket consistency.
func (c Config) Validate() error {
	switch c.Data.Backend {
	case "", "local":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir required for local backend")
		}
	case "s3", "gcs":
		if c.Data.Bucket == "" {
			return fmt.Errorf("data.bucket required for %s backend", c.Data.Backend)
		}
	default:
		return fmt.Errorf("unknown data backend: %s", c.Data.Backend)
	}
	if c.Facts.MaxOrders < 0 {
		return fmt.Errorf("facts.max_orders must be >= 0")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Data.Backend = getenvDefault("OLIST_DATA_BACKEND", cfg.Data.Backend)
	cfg.Data.Dir = getenvDefault("OLIST_DATA_DIR", cfg.Data.Dir)
	cfg.Data.Bucket = getenvDefault("OLIST_DATA_BUCKET", cfg.Data.Bucket)
	cfg.Data.Prefix = getenvDefault("OLIST_DATA_PREFIX", cfg.Data.Prefix)
	cfg.Data.S3Region = getenvDefault("OLIST_S3_REGION", cfg.Data.S3Region)
	cfg.Data.S3Endpoint = getenvDefault("OLIST_S3_ENDPOINT", cfg.Data.S3Endpoint)

	cfg.Facts.MaxOrders = getenvInt("OLIST_MAX_ORDERS", cfg.Facts.MaxOrders)
	cfg.Facts.Year = getenvInt("OLIST_YEAR", cfg.Facts.Year)

	cfg.Server.Listen = getenvDefault("OLIST_LISTEN", cfg.Server.Listen)
	cfg.Logging.Format = getenvDefault("OLIST_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("OLIST_LOG_LEVEL", cfg.Logging.Level)
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
