// Package config loads engine.Config-equivalent settings from a YAML file
// resolved through the XDG config directory, mirroring the way aretext's
// app package resolves and loads aretext/config.yaml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the ambient engine configuration spec.md leaves unspecified:
// fetch limits for LOAD, function-plugin discovery, and reproducibility
// knobs for rand().
type Config struct {
	// FetchTimeout bounds a single LOAD request's round trip.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// MaxResponseBytes caps a LOAD response body; a response exceeding it
	// fails the statement rather than being silently truncated.
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// PluginDirs lists directories for function plugins. It is loaded and
	// saved with the rest of the file, but no package reads it: the function
	// registry holds only the functions registered in code.
	PluginDirs []string `yaml:"plugin_dirs"`
	// DeterministicRand seeds rand() from a fixed value instead of the
	// process clock, for reproducible test runs.
	DeterministicRand bool `yaml:"deterministic_rand"`
	// RandSeed is used when DeterministicRand is true.
	RandSeed int64 `yaml:"rand_seed"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		FetchTimeout:     10 * time.Second,
		MaxResponseBytes: 10 << 20,
	}
}

// Path returns the resolved location of flowquery's config file, creating
// no file itself.
func Path() (string, error) {
	return xdg.ConfigFile(filepath.Join("flowquery", "config.yaml"))
}

// Load reads and validates the config file at Path, returning Default() if
// the file does not exist.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, errors.Wrap(err, "resolving config path")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config file %q", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %q", path)
	}
	if cfg.FetchTimeout <= 0 {
		return Config{}, errors.Errorf("config: fetch_timeout must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.MaxResponseBytes <= 0 {
		return Config{}, errors.Errorf("config: max_response_bytes must be positive, got %d", cfg.MaxResponseBytes)
	}
	return cfg, nil
}

// Save writes cfg to Path, creating its parent directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return errors.Wrap(err, "resolving config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating config directory for %q", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing config file %q", path)
	}
	return nil
}
