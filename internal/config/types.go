package config

import "github.com/aether-shell/aether/internal/types"

// Placement strategies for new windows
const (
	PlacementCascade  = "cascade"
	PlacementCentered = "centered"
)

// Config is the root configuration structure
type Config struct {
	Settings Settings               `yaml:"settings" json:"settings"`
	Apps     map[string]AppOverride `yaml:"apps,omitempty" json:"apps,omitempty"`
}

// Settings contains global shell settings
type Settings struct {
	SnapThreshold  float64     `yaml:"snapThreshold" json:"snapThreshold"`
	Placement      string      `yaml:"placement" json:"placement"`
	CascadeOrigin  types.Point `yaml:"cascadeOrigin" json:"cascadeOrigin"`
	CascadeStep    float64     `yaml:"cascadeStep" json:"cascadeStep"`
	Jitter         float64     `yaml:"jitter" json:"jitter"`
	Seed           int64       `yaml:"seed,omitempty" json:"seed,omitempty"` // 0 seeds from the clock
	TitleBarHeight float64     `yaml:"titleBarHeight" json:"titleBarHeight"`
	Viewport       types.Size  `yaml:"viewport" json:"viewport"`
	WrapFocus      bool        `yaml:"wrapFocus" json:"wrapFocus"`
	Socket         string      `yaml:"socket,omitempty" json:"socket,omitempty"`
	StartupApps    []string    `yaml:"startupApps" json:"startupApps"` // opened in order when the daemon starts
}

// AppOverride replaces catalog defaults for one app. Zero fields keep the default.
type AppOverride struct {
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	Width  float64 `yaml:"width,omitempty" json:"width,omitempty"`
	Height float64 `yaml:"height,omitempty" json:"height,omitempty"`
}
