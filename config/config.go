package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/melkeydev/value-finder/databases"
	"gopkg.in/yaml.v3"
)

const DatabasePlaceholder = databases.DatabasePlaceholder

var ErrMissingPlaceholder = errors.New("connection string has no " + DatabasePlaceholder + " placeholder")

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Finder   FinderConfig   `yaml:"finder"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	DBType           string `yaml:"type"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	Server           string `yaml:"server,omitempty"`
	Bootstrap        string `yaml:"bootstrap,omitempty"`
}

type FinderConfig struct {
	Threads     int           `yaml:"threads"`
	ExactMatch  bool          `yaml:"exact_match"`
	UnitTimeout time.Duration `yaml:"unit_timeout,omitempty"`
	// MaxQPS caps queries per second against the server. Zero means no cap.
	MaxQPS float64 `yaml:"max_qps,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	SeqURL string `yaml:"seq_url,omitempty"`
}

// Default is used when no config file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{DBType: "sqlserver"},
		Finder:   FinderConfig{Threads: 1},
		Log:      LogConfig{Level: "warn"},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.Finder.Threads = ClampThreads(config.Finder.Threads)

	return config, nil
}

// ClampThreads enforces a pool of at least one worker.
func ClampThreads(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// GetConnectionString returns the connection string template for the
// configured driver.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	switch d.DBType {
	case "sqlserver":
		if d.ConnectionString == "" {
			if d.Server == "" {
				return "", fmt.Errorf("connection string or server is required for %s connection", d.DBType)
			}
			// Windows integrated authentication against server.
			return fmt.Sprintf("sqlserver://%s?database=%s&trusted_connection=yes", d.Server, DatabasePlaceholder), nil
		}
		if !strings.Contains(d.ConnectionString, DatabasePlaceholder) {
			return "", fmt.Errorf("%w: %s", ErrMissingPlaceholder, d.DBType)
		}
		return d.ConnectionString, nil

	case "postgres", "mysql":
		// Connectors point the parsed DSN at each database, placeholder or not.
		if d.ConnectionString == "" {
			return "", fmt.Errorf("connection string is required for %s connection", d.DBType)
		}
		return d.ConnectionString, nil

	case "sqlite":
		if d.ConnectionString == "" {
			d.ConnectionString = DatabasePlaceholder + ".db"
		}
		if !strings.Contains(d.ConnectionString, DatabasePlaceholder) {
			return "", fmt.Errorf("%w: %s", ErrMissingPlaceholder, d.DBType)
		}
		return d.ConnectionString, nil

	default:
		return "", fmt.Errorf("unsupported database type: %s", d.DBType)
	}
}
