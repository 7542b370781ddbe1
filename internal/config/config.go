// Package config handles optional CLI configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure for the agentline CLI.
type Config struct {
	SessionsDir string `yaml:"sessionsDir,omitempty"`
	Format      string `yaml:"format,omitempty"` // default output format for list/view
	Color       string `yaml:"color,omitempty"`  // auto, always, never
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format: "table",
		Color:  "auto",
	}
}

// Dir returns the directory the config file is read from.
func Dir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentline"), nil
}

// Load reads the config file, falling back to defaults when it is absent.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Format == "" {
		cfg.Format = "table"
	}
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	return cfg, nil
}
