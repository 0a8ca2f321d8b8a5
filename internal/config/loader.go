package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

// ProjectConfigFile is the name of the config file looked up in the root.
const ProjectConfigFile = "standards.yaml"

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. The file at path, or standards.yaml in root when path is empty
// 3. overrides (command-line flags)
//
// An explicit path that cannot be read is an error; a missing
// standards.yaml in root is not.
func (l *Loader) Load(root, path string, overrides *Config) (*Config, error) {
	config := DefaultConfig()
	if root != "" {
		config.Root = root
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(config.Root, ProjectConfigFile)
	}

	fileConfig, err := LoadFromFile(path)
	switch {
	case err == nil:
		l.logger.Debug("Loaded project config", zap.String("path", path))
		config.Merge(fileConfig)
		// The file's root is relative to the file itself.
		if fileConfig.Root != "" && !filepath.IsAbs(fileConfig.Root) {
			config.Root = filepath.Join(filepath.Dir(path), fileConfig.Root)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	default:
		l.logger.Debug("No project config found", zap.String("path", path))
	}

	config.Merge(overrides)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
