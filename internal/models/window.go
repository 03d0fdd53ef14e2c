package models

import (
	"fmt"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/types"
)

// Window is one hosted application window
type Window struct {
	ID          string      `json:"id"`
	App         apps.Kind   `json:"app"`
	Title       string      `json:"title"`
	IsOpen      bool        `json:"isOpen"`
	IsMinimized bool        `json:"isMinimized"`
	ZOrder      int         `json:"zOrder"`
	Position    types.Point `json:"position"`
	Size        types.Size  `json:"size"`
	Context     Context     `json:"context"`
}

// Bounds returns the window's rectangle at its committed position
func (w Window) Bounds() types.Rect {
	return types.RectAt(w.Position, w.Size)
}

// BoundsAt returns the window's rectangle if it were placed at p
func (w Window) BoundsAt(p types.Point) types.Rect {
	return types.RectAt(p, w.Size)
}

// IsVisible reports whether the window is rendered and can be a snap target
func (w Window) IsVisible() bool {
	return w.IsOpen && !w.IsMinimized
}

// FormatFrame returns a formatted string representation of the window frame
func (w Window) FormatFrame() string {
	return fmt.Sprintf("%.0fx%.0f @ (%.0f, %.0f)", w.Size.Width, w.Size.Height, w.Position.X, w.Position.Y)
}
