// Package focus picks which window should receive focus next, either by
// stacking order or by screen direction. It never mutates windows.
package focus

import (
	"sort"

	"github.com/aether-shell/aether/internal/models"
)

// Stack returns the visible windows ordered topmost first
func Stack(windows []models.Window) []models.Window {
	stack := make([]models.Window, 0, len(windows))
	for _, w := range windows {
		if w.IsVisible() {
			stack = append(stack, w)
		}
	}
	sort.SliceStable(stack, func(i, j int) bool {
		return stack[i].ZOrder > stack[j].ZOrder
	})
	return stack
}

// Topmost returns the visible window with the highest z-order
func Topmost(windows []models.Window) (string, bool) {
	stack := Stack(windows)
	if len(stack) == 0 {
		return "", false
	}
	return stack[0].ID, true
}

// Cycle returns the window to focus when cycling. Forward raises the window
// at the bottom of the stack, so repeated calls visit every window. Backward
// returns to the window directly below the active one. With no visible
// active window the topmost is returned.
func Cycle(windows []models.Window, activeID string, forward bool) (string, bool) {
	stack := Stack(windows)
	if len(stack) == 0 {
		return "", false
	}

	idx := -1
	for i, w := range stack {
		if w.ID == activeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return stack[0].ID, true
	}
	if len(stack) == 1 {
		return stack[0].ID, true
	}

	if forward {
		return stack[len(stack)-1].ID, true
	}
	return stack[(idx+1)%len(stack)].ID, true
}
