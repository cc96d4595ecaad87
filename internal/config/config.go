// Package config provides configuration loading for code-analyzer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTOON = "toon"
	FormatJSON = "json"
)

// Config holds analyzer and output settings.
type Config struct {
	// CacheSize is the fact cache capacity (default: 100)
	CacheSize int `yaml:"cache_size"`
	// Workers bounds concurrent file analysis (0 = one per CPU)
	Workers int `yaml:"workers"`
	// FollowDepth is the call chain depth for focused analysis.
	// 0 = definitions only, 1 = direct callers/callees, 2+ = transitive
	FollowDepth int `yaml:"follow_depth"`
	// MaxDepth is the directory recursion limit (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`
	// ASTRecursionLimit bounds receiver resolution walks (0 = unlimited)
	ASTRecursionLimit int `yaml:"ast_recursion_limit"`
	// MaxFiles keeps the top-ranked files in directory output (0 = all)
	MaxFiles int `yaml:"max_files"`
	// Format is the output format: toon or json
	Format string `yaml:"format"`
	// Exclude lists doublestar patterns skipped during directory walks
	Exclude []string `yaml:"exclude"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheSize:   100,
		FollowDepth: 2,
		MaxDepth:    3,
		Format:      FormatTOON,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.FollowDepth < 0 {
		return fmt.Errorf("follow_depth must not be negative")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if c.ASTRecursionLimit < 0 {
		return fmt.Errorf("ast_recursion_limit must not be negative")
	}
	if c.MaxFiles < 0 {
		return fmt.Errorf("max_files must not be negative")
	}
	switch c.Format {
	case FormatTOON, FormatJSON:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatTOON, FormatJSON, c.Format)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
