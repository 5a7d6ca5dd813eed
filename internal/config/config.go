// Package config loads sweep configuration from .csweep.yaml files.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
// when no --config flag is given.
const DefaultFileName = ".csweep.yaml"

// Config holds file-based sweep configuration. Command-line flags are
// merged on top of it.
type Config struct {
	// Extensions are the file extensions treated as C sources.
	Extensions []string `yaml:"extensions"`

	// Exclude lists directory names skipped during discovery.
	Exclude []string `yaml:"exclude"`

	// EntryPoints are sweep roots in addition to main.
	EntryPoints []string `yaml:"entry_points"`

	// Externals are function names expected to resolve outside the scanned
	// set; calls to them are never reported undeclared.
	Externals []string `yaml:"externals"`

	// Strict enables strict mode: missing prototypes are reported and
	// non-static functions lose their implicit-root status in library
	// sweeps.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extensions:  []string{".c", ".h"},
		EntryPoints: []string{"main"},
	}
}

// Load reads a config file and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	def := Default()
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = def.Extensions
	}
	cfg.EntryPoints = append(cfg.EntryPoints, def.EntryPoints...)
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults
// otherwise. An explicit path that cannot be read is an error; the
// implicit default file is allowed to be absent.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
		if _, err := os.Stat(path); err != nil {
			return Default(), nil
		}
	}
	return Load(path)
}
