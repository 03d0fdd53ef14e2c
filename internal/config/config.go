package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/registry"
	"github.com/aether-shell/aether/internal/shell"
	"github.com/aether-shell/aether/internal/snap"
	"github.com/aether-shell/aether/internal/types"
)

const (
	DefaultConfigDir  = ".config/aether"
	DefaultConfigFile = "config.yaml"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Settings: Settings{
			SnapThreshold:  snap.DefaultThreshold,
			Placement:      PlacementCascade,
			CascadeOrigin:  registry.DefaultCascadeOrigin,
			CascadeStep:    registry.DefaultCascadeStep,
			Jitter:         registry.DefaultCenterJitter,
			TitleBarHeight: 36,
			Viewport:       registry.DefaultViewport,
			StartupApps:    []string{string(apps.Omni)},
		},
	}
}

// LoadConfig loads configuration from the specified path or default location.
// If path is empty, uses ~/.config/aether/config.yaml (or config.json) and
// falls back to Default when neither exists.
// Supports both .yaml and .json extensions.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		// Try YAML first, then JSON
		yamlPath := filepath.Join(home, DefaultConfigDir, "config.yaml")
		jsonPath := filepath.Join(home, DefaultConfigDir, "config.json")

		if _, err := os.Stat(yamlPath); err == nil {
			path = yamlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			path = jsonPath
		} else {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return LoadConfigFromBytes(data, ext)
}

// LoadConfigFromBytes loads configuration from raw bytes on top of Default.
// format should be "yaml" or "json"
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	cfg := Default()

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// Catalog returns the app catalog with overrides applied
func (c *Config) Catalog() *apps.Catalog {
	overrides := make(map[apps.Kind]apps.AppConfig, len(c.Apps))
	for name, o := range c.Apps {
		kind, ok := apps.ParseKind(name)
		if !ok {
			continue
		}
		overrides[kind] = apps.AppConfig{
			Title:       o.Title,
			DefaultSize: types.Size{Width: o.Width, Height: o.Height},
		}
	}
	return apps.DefaultCatalog().WithOverrides(overrides)
}

// StartupApps returns the apps opened when the daemon starts
func (c *Config) StartupApps() []apps.Kind {
	kinds := make([]apps.Kind, 0, len(c.Settings.StartupApps))
	for _, name := range c.Settings.StartupApps {
		if kind, ok := apps.ParseKind(name); ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Placer builds the configured placement strategy
func (c *Config) Placer() registry.Placer {
	s := c.Settings
	if s.Placement == PlacementCentered {
		seed := s.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return registry.NewCenteredPlacer(s.Jitter, rand.New(rand.NewSource(seed)))
	}
	return registry.NewCascadePlacer(s.CascadeOrigin, s.CascadeStep)
}

// ShellOptions converts the configuration into shell tunables
func (c *Config) ShellOptions() shell.Options {
	return shell.Options{
		Catalog:        c.Catalog(),
		Placer:         c.Placer(),
		Viewport:       c.Settings.Viewport,
		SnapThreshold:  c.Settings.SnapThreshold,
		TitleBarHeight: c.Settings.TitleBarHeight,
		WrapFocus:      c.Settings.WrapFocus,
		StartupApps:    c.StartupApps(),
	}
}

// Marshal serializes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
