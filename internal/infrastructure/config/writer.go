package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Uniao Configuration

sqlite:
  # path: /var/lib/uniao/shared.db (default: one database per union profile)

neo4j:
  enabled: false
  uri: neo4j://localhost:7687
  username: neo4j
  database: neo4j
  # password: secret (or set UNIAO_NEO4J_PASSWORD env var)

log:
  level: info
  format: console

metrics:
  # textfile_path: /var/lib/node_exporter/uniao.prom
`

// WriteDefault creates the .uniao directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a uniao config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile))
	return err == nil
}
