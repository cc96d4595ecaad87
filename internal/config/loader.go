package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is the name of the project-level config file.
const ProjectConfigFile = ".code-analyzer.yaml"

// Loader finds and loads configuration.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load returns the configuration to use. An explicit path must exist.
// Otherwise the nearest ProjectConfigFile in the working directory or its
// parents is used, falling back to defaults.
func (l *Loader) Load(explicit string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return l.loadFrom(cwd, explicit)
}

func (l *Loader) loadFrom(dir, explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		path = findProjectConfig(dir)
	}

	config := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("config.loaded", slog.String("path", path))
		config = loaded
	} else {
		l.logger.Debug("config.defaults")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findProjectConfig searches dir and its parents for ProjectConfigFile.
func findProjectConfig(dir string) string {
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
