package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for imsinfo. Flags override
// anything set here.
type Config struct {
	// BaseSpacing is the level-0 voxel spacing in display order (x, y, z),
	// used when the file carries no calibration metadata.
	BaseSpacing []float64 `yaml:"baseSpacing"`

	// DefaultLevel is the resolution level `load` uses when --level is
	// not given.
	DefaultLevel int `yaml:"defaultLevel"`

	// Strict fails on layout violations instead of warning.
	Strict bool `yaml:"strict"`

	// DirectMetadata skips the community metadata reader.
	DirectMetadata bool `yaml:"directMetadata"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{DefaultLevel: 0}
}

// LoadConfig reads a YAML config file, or returns defaults for an empty
// path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.BaseSpacing != nil && len(cfg.BaseSpacing) != 3 {
		return nil, fmt.Errorf("baseSpacing must have exactly 3 components, got %d", len(cfg.BaseSpacing))
	}
	for _, v := range cfg.BaseSpacing {
		if v <= 0 {
			return nil, fmt.Errorf("baseSpacing components must be positive, got %v", cfg.BaseSpacing)
		}
	}
	if cfg.DefaultLevel < 0 {
		return nil, fmt.Errorf("defaultLevel must be non-negative, got %d", cfg.DefaultLevel)
	}
	return cfg, nil
}
