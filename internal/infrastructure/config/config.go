// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for uniao configuration.
	DefaultConfigDir = ".uniao"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultUnionsFile is the default union profiles file name.
	DefaultUnionsFile = "unions.yaml"
	// EnvPrefix is the envconfig prefix for environment overrides.
	EnvPrefix = "uniao"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite  SQLiteConfig  `yaml:"sqlite,omitempty" envconfig:"sqlite"`
	Neo4j   Neo4jConfig   `yaml:"neo4j,omitempty" envconfig:"neo4j"`
	Log     LogConfig     `yaml:"log,omitempty" envconfig:"log"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" envconfig:"metrics"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path overrides the database file for every profile.
	// Empty means one database per profile, computed by SQLitePathForUnion.
	Path string `yaml:"path,omitempty" envconfig:"UNIAO_SQLITE_PATH"`
}

// Neo4jConfig holds configuration for the graph projection database.
type Neo4jConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"UNIAO_NEO4J_ENABLED"`
	URI      string `yaml:"uri,omitempty" envconfig:"UNIAO_NEO4J_URI"`
	Username string `yaml:"username,omitempty" envconfig:"UNIAO_NEO4J_USERNAME"`
	Password string `yaml:"password,omitempty" envconfig:"UNIAO_NEO4J_PASSWORD"`
	Database string `yaml:"database,omitempty" envconfig:"UNIAO_NEO4J_DATABASE"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty" envconfig:"UNIAO_LOG_LEVEL"`
	// Format is json or console.
	Format string `yaml:"format,omitempty" envconfig:"UNIAO_LOG_FORMAT"`
}

// MetricsConfig holds workflow metrics settings.
type MetricsConfig struct {
	// TextfilePath is where the CLI writes Prometheus metrics after a run.
	// Empty disables the export.
	TextfilePath string `yaml:"textfile_path,omitempty" envconfig:"UNIAO_METRICS_TEXTFILE_PATH"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from the .uniao directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'uniao init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides replaces file values with any UNIAO_* variables that are set.
// Each field tag names its variable in full; envconfig reads it when the
// nested prefixed key is unset.
func (c *Config) applyEnvOverrides() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	return nil
}

// ConfigDir returns the path to the .uniao config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// UnionsFilePath returns the path to the union profiles file.
func UnionsFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultUnionsFile)
}

// SanitizeProfileName converts a profile name to a safe directory name.
func SanitizeProfileName(name string) string {
	name = strings.ToLower(name)

	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	name = reNonAlphanumeric.ReplaceAllString(name, "")
	name = reMultipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// UnionDir returns the directory holding a profile's data.
func UnionDir(basePath, profile string) string {
	return filepath.Join(basePath, DefaultConfigDir, "unions", SanitizeProfileName(profile))
}

// SQLitePathForUnion returns the SQLite database path for a profile,
// honoring an explicit sqlite.path override.
func (c *Config) SQLitePathForUnion(basePath, profile string) string {
	if c != nil && c.SQLite.Path != "" {
		return c.SQLite.Path
	}
	return filepath.Join(UnionDir(basePath, profile), "uniao.db")
}
