// Package config loads process-wide checkwatch settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional settings file looked up under the
// checkfile root.
const ConfigFileName = "checkwatch.yaml"

// Config represents the checkwatch settings loaded from YAML.
type Config struct {
	// RunIntervalSeconds is how often each check fires (default: 10).
	RunIntervalSeconds int `yaml:"run_interval"`

	// RunTimeoutSeconds kills a run that exceeds it; 0 disables the
	// timeout by default; a check is allowed to be slow.
	RunTimeoutSeconds int `yaml:"run_timeout"`

	// MaxConcurrentRuns caps simultaneous runs across all checks;
	// 0 means unbounded.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`

	// ScriptsDir is prepended to PATH for every check command so
	// bundled adapters resolve by bare name.
	ScriptsDir string `yaml:"scripts_dir"`

	// DebounceMs is the file-watch debounce window in milliseconds
	// (default: 300).
	DebounceMs int `yaml:"debounce_ms"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	return &Config{
		RunIntervalSeconds: 10,
		DebounceMs:         300,
	}
}

// DefaultRoot returns the per-user checkfile directory.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".checkwatch"
	}
	return filepath.Join(home, ".checkwatch")
}

// Load reads settings from the YAML file at path. A missing file yields
// defaults; a malformed file is an error rather than a silent default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromRoot loads settings from the conventional file under the
// checkfile root.
func LoadFromRoot(root string) (*Config, error) {
	return Load(filepath.Join(root, ConfigFileName))
}

// Validate checks the settings for out-of-range values
func (c *Config) Validate() error {
	if c.RunIntervalSeconds <= 0 {
		return fmt.Errorf("run_interval must be positive (got %d)", c.RunIntervalSeconds)
	}
	if c.RunTimeoutSeconds < 0 {
		return fmt.Errorf("run_timeout cannot be negative (got %d)", c.RunTimeoutSeconds)
	}
	if c.MaxConcurrentRuns < 0 {
		return fmt.Errorf("max_concurrent_runs cannot be negative (got %d)", c.MaxConcurrentRuns)
	}
	if c.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive (got %d)", c.DebounceMs)
	}
	return nil
}

// RunInterval returns the check interval as a duration.
func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalSeconds) * time.Second
}

// RunTimeout returns the per-run timeout, zero when disabled.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// Debounce returns the watch debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}
