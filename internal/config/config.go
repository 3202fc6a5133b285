package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sigreer/odbcgod/internal/logger"
	"github.com/sigreer/odbcgod/internal/store/registry"
	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendAuto     = "auto"
	BackendRegistry = "registry"
	BackendINI      = "ini"
	BackendFixture  = "fixture"
)

type Config struct {
	// Backend: "auto", "registry", "ini" or "fixture"
	Backend   string        `yaml:"backend,omitempty"`
	Fixture   string        `yaml:"fixture,omitempty"`
	INI       INI           `yaml:"ini"`
	Registry  Registry      `yaml:"registry"`
	CacheTTL  time.Duration `yaml:"cache_ttl,omitempty"`
	Inventory string        `yaml:"inventory,omitempty"`
	Log       logger.Config `yaml:"log"`
}

type INI struct {
	SystemDir string `yaml:"system_dir,omitempty"`
	UserDir   string `yaml:"user_dir,omitempty"`
}

type Registry struct {
	// View: "default", "32" or "64"
	View string `yaml:"view,omitempty"`
}

// defaultConfig provides baseline settings
var defaultConfig = Config{
	Backend: BackendAuto,
	INI: INI{
		SystemDir: "/etc",
	},
	Inventory: "/var/lib/odbcgod/inventory.db",
	Log: logger.Config{
		Level:    "warn",
		Encoding: "console",
	},
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// candidates lists the config files tried when no path is given
func candidates() []string {
	return []string{
		"/etc/odbcgod/config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/odbcgod/config.yaml"),
		"config.yaml",
	}
}

// Load reads the config at path, or the first default location that exists.
// A missing file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, c := range candidates() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := defaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills fields the file left empty
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = defaultConfig.Backend
	}
	if c.INI.SystemDir == "" {
		c.INI.SystemDir = defaultConfig.INI.SystemDir
	}
	if dir := os.Getenv("ODBCSYSINI"); dir != "" {
		c.INI.SystemDir = dir
	}
	if c.Inventory == "" {
		c.Inventory = defaultConfig.Inventory
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultConfig.Log.Level
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = defaultConfig.Log.Encoding
	}
}

// Validate checks backend settings
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendRegistry, BackendINI:
	case BackendFixture:
		if c.Fixture == "" {
			return fmt.Errorf("backend %q requires a fixture path", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := registry.ParseView(c.Registry.View); err != nil {
		return err
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
