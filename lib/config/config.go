// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/shard"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "ATELIER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local work on a project.
	Development Environment = "development"
	// Production is for build machines and shared project stores.
	Production Environment = "production"
)

// Config is the master configuration for an asset project.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Paths configures the project layout.
	Paths PathsConfig `yaml:"paths"`

	// Storage configures the shard files.
	Storage StorageConfig `yaml:"storage"`

	// Extensions replaces the built-in extension allow-list of each
	// kind named. Keys are kind names ("image", "structured_data",
	// ...), values are extensions without the dot.
	Extensions map[string][]string `yaml:"extensions,omitempty"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the project directory.
	Root string `yaml:"root"`

	// Metadata holds one metadata shard per kind. Relative paths are
	// resolved against Root.
	// Default: metadata
	Metadata string `yaml:"metadata"`

	// Groups holds one group shard per kind.
	// Default: groups
	Groups string `yaml:"groups"`

	// Assets holds the imported payloads.
	// Default: assets
	Assets string `yaml:"assets"`
}

// StorageConfig configures shard encoding.
type StorageConfig struct {
	// Compression applies to shard bodies: none, zstd, or lz4.
	// Default: none (development), zstd (production)
	Compression string `yaml:"compression"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is json or text.
	// Default: text (development), json (production)
	Format string `yaml:"format"`
}

// Default returns the default configuration: a development project in
// the current directory.
func Default() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     ".",
			Metadata: "metadata",
			Groups:   "groups",
			Assets:   "assets",
		},
		Storage: StorageConfig{
			Compression: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the ATELIER_CONFIG environment
// variable. It fails if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your atelier.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Storage: &StorageConfig{Compression: "zstd"},
				Log:     &LogConfig{Format: "json"},
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
		if overrides.Paths.Metadata != "" {
			c.Paths.Metadata = overrides.Paths.Metadata
		}
		if overrides.Paths.Groups != "" {
			c.Paths.Groups = overrides.Paths.Groups
		}
		if overrides.Paths.Assets != "" {
			c.Paths.Assets = overrides.Paths.Assets
		}
	}

	if overrides.Storage != nil && overrides.Storage.Compression != "" {
		c.Storage.Compression = overrides.Storage.Compression
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ATELIER_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ATELIER_ROOT"] = c.Paths.Root

	c.Paths.Metadata = expandVars(c.Paths.Metadata, vars)
	c.Paths.Groups = expandVars(c.Paths.Groups, vars)
	c.Paths.Assets = expandVars(c.Paths.Assets, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
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

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Metadata == "" {
		errs = append(errs, fmt.Errorf("paths.metadata is required"))
	}
	if c.Paths.Groups == "" {
		errs = append(errs, fmt.Errorf("paths.groups is required"))
	}
	if c.Paths.Assets == "" {
		errs = append(errs, fmt.Errorf("paths.assets is required"))
	}

	if _, err := c.Compression(); err != nil {
		errs = append(errs, fmt.Errorf("storage.compression: %w", err))
	}
	if _, err := c.ExtensionOverrides(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be one of: [json text]"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Compression returns the configured shard compression.
func (c *Config) Compression() (shard.Compression, error) {
	return shard.ParseCompression(c.Storage.Compression)
}

// ExtensionOverrides returns the extension allow-lists keyed by kind.
func (c *Config) ExtensionOverrides() (map[asset.Kind][]string, error) {
	if len(c.Extensions) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(c.Extensions))
	for name := range c.Extensions {
		names = append(names, name)
	}
	sort.Strings(names)

	overrides := make(map[asset.Kind][]string, len(names))
	for _, name := range names {
		kind, err := asset.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("extensions: %w", err)
		}
		if len(c.Extensions[name]) == 0 {
			return nil, fmt.Errorf("extensions.%s: list must not be empty", name)
		}
		overrides[kind] = c.Extensions[name]
	}
	return overrides, nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, err
	}
	return level, nil
}

// ResolvedPaths returns the metadata, groups, and assets directories
// with relative entries joined to Root.
func (c *Config) ResolvedPaths() (metadata, groups, assets string) {
	resolve := func(directory string) string {
		if filepath.IsAbs(directory) {
			return directory
		}
		return filepath.Join(c.Paths.Root, directory)
	}
	return resolve(c.Paths.Metadata), resolve(c.Paths.Groups), resolve(c.Paths.Assets)
}
