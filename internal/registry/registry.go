// Package registry owns the set of open windows and arbitrates focus and
// z-order between them.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

// DefaultViewport is used when no viewport provider is configured
var DefaultViewport = types.Size{Width: 1280, Height: 800}

// Registry holds every open window in insertion order. Mutators never fail:
// unknown ids and app kinds are ignored.
type Registry struct {
	windows  []*models.Window
	activeID string
	zHigh    int

	catalog  *apps.Catalog
	placer   Placer
	viewport func() types.Size
	newID    func() string

	subscribers []func()

	mu sync.RWMutex
}

// Option configures a Registry
type Option func(*Registry)

// WithCatalog sets the app catalog used for titles and default sizes
func WithCatalog(c *apps.Catalog) Option {
	return func(r *Registry) { r.catalog = c }
}

// WithPlacer sets the initial placement strategy
func WithPlacer(p Placer) Option {
	return func(r *Registry) { r.placer = p }
}

// WithViewport sets the viewport bounds provider, read on every placement
func WithViewport(fn func() types.Size) Option {
	return func(r *Registry) { r.viewport = fn }
}

// WithIDGenerator overrides window ID generation
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		catalog:  apps.DefaultCatalog(),
		placer:   NewCascadePlacer(DefaultCascadeOrigin, DefaultCascadeStep),
		viewport: func() types.Size { return DefaultViewport },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn to be called after every state change. fn runs
// outside the registry lock and may query the registry.
func (r *Registry) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func (r *Registry) notify() {
	r.mu.RLock()
	subs := make([]func(), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// SetCatalog replaces the app catalog used for new windows
func (r *Registry) SetCatalog(c *apps.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = c
}

// SetPlacer replaces the placement strategy used for new windows
func (r *Registry) SetPlacer(p Placer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placer = p
}

// OpenApp focuses the window hosting kind, replacing its context when ctx is
// not empty, or creates one. Returns the window ID, or "" for an unknown kind.
func (r *Registry) OpenApp(kind apps.Kind, ctx models.Context) string {
	r.mu.Lock()

	if w := r.findByApp(kind); w != nil {
		r.focus(w)
		if !ctx.IsEmpty() {
			w.Context = ctx
		}
		id := w.ID
		r.mu.Unlock()

		logging.Debug().Str("windowId", id).Str("app", string(kind)).Msg("app already open, focused")
		r.notify()
		return id
	}

	cfg, ok := r.catalog.Lookup(kind)
	if !ok {
		r.mu.Unlock()
		logging.Debug().Str("app", string(kind)).Msg("unknown app kind ignored")
		return ""
	}

	if ctx.Kind == "" {
		ctx = models.NoContext
	}
	w := &models.Window{
		ID:       r.newID(),
		App:      kind,
		Title:    cfg.Title,
		IsOpen:   true,
		Size:     cfg.DefaultSize,
		Position: r.placer.Place(cfg.DefaultSize, r.viewport()),
		ZOrder:   r.allocZ(),
		Context:  ctx,
	}
	r.windows = append(r.windows, w)
	r.activeID = w.ID
	r.mu.Unlock()

	logging.Debug().
		Str("windowId", w.ID).
		Str("app", string(kind)).
		Float64("x", w.Position.X).
		Float64("y", w.Position.Y).
		Int("zOrder", w.ZOrder).
		Msg("window opened")
	r.notify()
	return w.ID
}

// CloseWindow removes the window. The active window becomes none if it was
// the one closed.
func (r *Registry) CloseWindow(id string) {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.windows = append(r.windows[:idx], r.windows[idx+1:]...)
	if r.activeID == id {
		r.activeID = ""
	}
	r.mu.Unlock()

	logging.Debug().Str("windowId", id).Msg("window closed")
	r.notify()
}

// FocusWindow raises the window to the top, restores it if minimized and
// makes it active.
func (r *Registry) FocusWindow(id string) {
	r.mu.Lock()
	w := r.get(id)
	if w == nil {
		r.mu.Unlock()
		return
	}
	r.focus(w)
	z := w.ZOrder
	r.mu.Unlock()

	logging.Debug().Str("windowId", id).Int("zOrder", z).Msg("window focused")
	r.notify()
}

// ToggleMinimize flips the minimized flag. Z-order and the active window
// are left alone.
func (r *Registry) ToggleMinimize(id string) {
	r.mu.Lock()
	w := r.get(id)
	if w == nil {
		r.mu.Unlock()
		return
	}
	w.IsMinimized = !w.IsMinimized
	minimized := w.IsMinimized
	r.mu.Unlock()

	logging.Debug().Str("windowId", id).Bool("minimized", minimized).Msg("window minimize toggled")
	r.notify()
}

// CommitPosition stores a new top-left for the window without clamping
func (r *Registry) CommitPosition(id string, x, y float64) {
	r.mu.Lock()
	w := r.get(id)
	if w == nil {
		r.mu.Unlock()
		return
	}
	w.Position = types.Point{X: x, Y: y}
	r.mu.Unlock()

	logging.Debug().Str("windowId", id).Float64("x", x).Float64("y", y).Msg("position committed")
	r.notify()
}

// ReplaceContext swaps the window's context wholesale
func (r *Registry) ReplaceContext(id string, ctx models.Context) {
	r.mu.Lock()
	w := r.get(id)
	if w == nil {
		r.mu.Unlock()
		return
	}
	if ctx.Kind == "" {
		ctx = models.NoContext
	}
	w.Context = ctx
	r.mu.Unlock()

	logging.Debug().Str("windowId", id).Str("context", ctx.String()).Msg("context replaced")
	r.notify()
}

// NextZOrder returns the value the next focus or open will receive. Values
// freed by closed windows are never handed out again.
func (r *Registry) NextZOrder() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peekZ()
}

// Must be called with r.mu held
func (r *Registry) peekZ() int {
	top := max(0, r.zHigh)
	for _, w := range r.windows {
		top = max(top, w.ZOrder)
	}
	return top + 1
}

// Must be called with r.mu held
func (r *Registry) allocZ() int {
	z := r.peekZ()
	r.zHigh = z
	return z
}

// Must be called with r.mu held
func (r *Registry) focus(w *models.Window) {
	w.ZOrder = r.allocZ()
	w.IsMinimized = false
	r.activeID = w.ID
}

// Must be called with r.mu held
func (r *Registry) indexOf(id string) int {
	for i, w := range r.windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Must be called with r.mu held
func (r *Registry) get(id string) *models.Window {
	if i := r.indexOf(id); i >= 0 {
		return r.windows[i]
	}
	return nil
}

// Must be called with r.mu held
func (r *Registry) findByApp(kind apps.Kind) *models.Window {
	for _, w := range r.windows {
		if w.App == kind {
			return w
		}
	}
	return nil
}
