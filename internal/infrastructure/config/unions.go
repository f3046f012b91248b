package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnionsConfig maps profile names to the union they open (read/write).
type UnionsConfig struct {
	Unions map[string]UnionEntry `yaml:"unions,omitempty"`
}

// UnionEntry holds configuration for a specific profile.
type UnionEntry struct {
	UnionID     string `yaml:"union_id"`
	Description string `yaml:"description,omitempty"`
}

// LoadUnions loads profile configuration from the .uniao directory.
func LoadUnions(basePath string) (*UnionsConfig, error) {
	data, err := os.ReadFile(UnionsFilePath(basePath))
	if os.IsNotExist(err) {
		return &UnionsConfig{Unions: make(map[string]UnionEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading unions file: %w", err)
	}

	var cfg UnionsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing unions file: %w", err)
	}

	if cfg.Unions == nil {
		cfg.Unions = make(map[string]UnionEntry)
	}

	return &cfg, nil
}

// Save writes the profiles to the unions file.
func (u *UnionsConfig) Save(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshaling unions config: %w", err)
	}

	if err := os.WriteFile(UnionsFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing unions file: %w", err)
	}

	return nil
}

// Add registers a profile, replacing any previous entry with the same name.
func (u *UnionsConfig) Add(name string, entry UnionEntry) {
	if u.Unions == nil {
		u.Unions = make(map[string]UnionEntry)
	}
	u.Unions[name] = entry
}

// Remove removes a profile.
func (u *UnionsConfig) Remove(name string) {
	if u.Unions != nil {
		delete(u.Unions, name)
	}
}

// Get returns the entry for a profile.
func (u *UnionsConfig) Get(name string) (*UnionEntry, error) {
	if len(u.Unions) == 0 {
		return nil, errors.New("no unions configured (run 'uniao init' first)")
	}

	entry, ok := u.Unions[name]
	if !ok {
		names := u.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("union %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// Exists checks if a profile is configured.
func (u *UnionsConfig) Exists(name string) bool {
	_, ok := u.Unions[name]
	return ok
}

// Names returns the profile names in sorted order.
func (u *UnionsConfig) Names() []string {
	names := make([]string, 0, len(u.Unions))
	for name := range u.Unions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
