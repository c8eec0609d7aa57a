// Package config loads the optional ember.toml project file the driver
// consults for GC tuning and logging preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is ember.toml's shape. Every field has a sane zero value, so a
// missing file is not an error: the driver just runs with defaults.
type Config struct {
	GC  GC  `toml:"gc"`
	Log Log `toml:"log"`
}

// GC overrides the collector's default growth policy.
type GC struct {
	InitialThresholdBytes int  `toml:"initial_threshold_bytes"`
	LogCollections        bool `toml:"log_collections"`
}

// Log configures the driver's slog handler.
type Log struct {
	Level string `toml:"level"` // debug, info, warn, error
	JSON  bool   `toml:"json"`
}

// Load reads ember.toml from dir. A missing file returns a zero-value
// Config and no error.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, "ember.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}
