// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a Meshdir node.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Directory configures the directory daemon.
	Directory DirectoryConfig `yaml:"directory"`

	// Heartbeat configures the periodic heartbeat source.
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Directory *DirectoryConfig `yaml:"directory,omitempty"`
	Heartbeat *HeartbeatConfig `yaml:"heartbeat,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Meshdir data.
	Root string `yaml:"root"`

	// State is where the view store database and snapshots live.
	State string `yaml:"state"`

	// Log is where command log files are written.
	Log string `yaml:"log"`

	// Run is the runtime directory for the daemon socket.
	Run string `yaml:"run"`
}

// DirectoryConfig configures the directory daemon.
type DirectoryConfig struct {
	// SocketName is the daemon socket filename, created under
	// Paths.Run.
	SocketName string `yaml:"socket_name"`

	// Store selects the view store backend: "memory" or "sqlite".
	Store string `yaml:"store"`

	// SnapshotOnShutdown writes a compressed snapshot of the view to
	// Paths.State when the daemon exits cleanly.
	SnapshotOnShutdown bool `yaml:"snapshot_on_shutdown"`
}

// HeartbeatConfig configures the periodic heartbeat source.
type HeartbeatConfig struct {
	// Enabled turns the heartbeat source on. The engine works without
	// it; stats.last_heartbeat simply stays at zero.
	Enabled bool `yaml:"enabled"`

	// Interval is the tick period (e.g., "30s").
	Interval string `yaml:"interval"`
}

// IntervalDuration parses the configured heartbeat interval.
func (h HeartbeatConfig) IntervalDuration() (time.Duration, error) {
	interval, err := time.ParseDuration(h.Interval)
	if err != nil {
		return 0, fmt.Errorf("heartbeat.interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("heartbeat.interval must be positive, got %s", h.Interval)
	}
	return interval, nil
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback —
// the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "meshdir")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			State: filepath.Join(defaultRoot, "state"),
			Log:   filepath.Join(defaultRoot, "log"),
			Run:   filepath.Join(defaultRoot, "run"),
		},
		Directory: DirectoryConfig{
			SocketName:         "directory.sock",
			Store:              "sqlite",
			SnapshotOnShutdown: true,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: "30s",
		},
	}
}

// Load loads configuration from the MESHDIR_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if MESHDIR_CONFIG is not set,
// this fails. This ensures deterministic, auditable configuration with
// no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("MESHDIR_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MESHDIR_CONFIG environment variable not set; " +
			"set it to the path of your meshdir.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production default: never run on the throwaway memory store.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Directory: &DirectoryConfig{
					Store:              "sqlite",
					SnapshotOnShutdown: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
		if overrides.Paths.Log != "" {
			c.Paths.Log = overrides.Paths.Log
		}
		if overrides.Paths.Run != "" {
			c.Paths.Run = overrides.Paths.Run
		}
	}

	if overrides.Directory != nil {
		if overrides.Directory.SocketName != "" {
			c.Directory.SocketName = overrides.Directory.SocketName
		}
		if overrides.Directory.Store != "" {
			c.Directory.Store = overrides.Directory.Store
		}
		// SnapshotOnShutdown is a bool, so we always apply it from overrides.
		c.Directory.SnapshotOnShutdown = overrides.Directory.SnapshotOnShutdown
	}

	if overrides.Heartbeat != nil {
		c.Heartbeat.Enabled = overrides.Heartbeat.Enabled
		if overrides.Heartbeat.Interval != "" {
			c.Heartbeat.Interval = overrides.Heartbeat.Interval
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"MESHDIR_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["MESHDIR_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Log = expandVars(c.Paths.Log, vars)
	c.Paths.Run = expandVars(c.Paths.Run, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Directory.SocketName == "" {
		errs = append(errs, fmt.Errorf("directory.socket_name is required"))
	}
	if c.Directory.Store != "memory" && c.Directory.Store != "sqlite" {
		errs = append(errs, fmt.Errorf("directory.store must be \"memory\" or \"sqlite\", got %q", c.Directory.Store))
	}
	if c.Heartbeat.Enabled {
		if _, err := c.Heartbeat.IntervalDuration(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SocketPath returns the full path of the daemon socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.Run, c.Directory.SocketName)
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.State, c.Paths.Log, c.Paths.Run} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
