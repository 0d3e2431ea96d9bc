package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// Default configuration values
	DefaultProductNamespace = "Microsoft.NET.Sdk"
	DefaultProductDir       = "dotnet"
)

// Config represents optional settings from a YAML config file.
// Command-line flags take precedence over file values.
type Config struct {
	// ProductNamespace prefixes the dependent name an SDK registers on its
	// providers.
	ProductNamespace string `yaml:"product_namespace"`

	// ProductDir is the folder under common app data holding workload state.
	ProductDir string `yaml:"product_dir"`

	// CommonAppData overrides the machine-wide application data directory.
	CommonAppData string `yaml:"common_app_data"`

	// StoreFile selects an offline store snapshot instead of the native
	// registry and installer.
	StoreFile string `yaml:"store_file"`

	// Summary prints a step table after the run.
	Summary bool `yaml:"summary"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ProductNamespace: DefaultProductNamespace,
		ProductDir:       DefaultProductDir,
	}
}

// LoadConfig loads the config file at path if it is set, otherwise returns
// defaults. Partial config files are merged with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Parse YAML and merge with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.ProductNamespace == "" {
		cfg.ProductNamespace = DefaultProductNamespace
	}
	if cfg.ProductDir == "" {
		cfg.ProductDir = DefaultProductDir
	}

	return cfg, nil
}

// ResolveCommonAppData returns the configured common app data directory,
// falling back to the platform default.
func (c *Config) ResolveCommonAppData() (string, error) {
	if c.CommonAppData != "" {
		return c.CommonAppData, nil
	}
	return CommonAppDataDir()
}
