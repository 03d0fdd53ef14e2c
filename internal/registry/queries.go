package registry

import (
	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/models"
)

// Get returns a copy of the window with id
func (r *Registry) Get(id string) (models.Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if w := r.get(id); w != nil {
		return *w, true
	}
	return models.Window{}, false
}

// FindByApp returns a copy of the window hosting kind
func (r *Registry) FindByApp(kind apps.Kind) (models.Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if w := r.findByApp(kind); w != nil {
		return *w, true
	}
	return models.Window{}, false
}

// Snapshot returns copies of every window in insertion order
func (r *Registry) Snapshot() []models.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to prevent modification
	result := make([]models.Window, len(r.windows))
	for i, w := range r.windows {
		result[i] = *w
	}
	return result
}

// Visible returns copies of the windows that are open and not minimized
func (r *Registry) Visible() []models.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Window, 0, len(r.windows))
	for _, w := range r.windows {
		if w.IsVisible() {
			result = append(result, *w)
		}
	}
	return result
}

// ActiveID returns the active window ID, or "" when none is active
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Len returns the number of windows in the registry
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// Catalog returns the current app catalog
func (r *Registry) Catalog() *apps.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}
