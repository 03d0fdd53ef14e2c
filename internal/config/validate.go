package config

import (
	"fmt"

	"github.com/aether-shell/aether/internal/apps"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validateSettings(&c.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	for name, o := range c.Apps {
		if _, ok := apps.ParseKind(name); !ok {
			return fmt.Errorf("apps: unknown app %q", name)
		}
		if o.Width < 0 || o.Height < 0 {
			return fmt.Errorf("apps.%s: size must not be negative", name)
		}
	}

	return nil
}

func validateSettings(s *Settings) error {
	if s.SnapThreshold < 0 {
		return fmt.Errorf("snapThreshold must not be negative, got %v", s.SnapThreshold)
	}

	switch s.Placement {
	case "", PlacementCascade, PlacementCentered:
	default:
		return fmt.Errorf("invalid placement: %s (must be %s or %s)", s.Placement, PlacementCascade, PlacementCentered)
	}

	if s.CascadeStep < 0 {
		return fmt.Errorf("cascadeStep must not be negative, got %v", s.CascadeStep)
	}
	if s.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative, got %v", s.Jitter)
	}
	if s.TitleBarHeight < 0 {
		return fmt.Errorf("titleBarHeight must not be negative, got %v", s.TitleBarHeight)
	}
	if s.Viewport.Width < 0 || s.Viewport.Height < 0 {
		return fmt.Errorf("viewport must not be negative, got %vx%v", s.Viewport.Width, s.Viewport.Height)
	}

	for _, name := range s.StartupApps {
		if _, ok := apps.ParseKind(name); !ok {
			return fmt.Errorf("startupApps: unknown app %q", name)
		}
	}

	return nil
}
