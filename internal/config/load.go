// file: internal/config/load.go
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Load reads configPath (expanding a leading "~"), parses it as YAML
// over New()'s defaults, and returns the merged Settings. An empty
// configPath returns the defaults unmodified.
func Load(configPath string) (*Settings, error) {
	cfg := New()
	if configPath == "" {
		logger.Warn("no config path provided, using default settings only")
		return cfg, nil
	}

	expanded, err := ExpandPath(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Load: failed to expand config path %q", configPath)
	}

	logger.Info("loading configuration", "config_path", expanded)
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, "Load: failed to read configuration file %q", expanded)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Load: failed to parse configuration file %q as YAML", expanded)
	}
	return cfg, nil
}
