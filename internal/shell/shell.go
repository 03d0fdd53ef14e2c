// Package shell wires the window registry, the drag controller and command
// intake together and publishes a Frame after every change.
package shell

import (
	"sync"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/drag"
	"github.com/aether-shell/aether/internal/focus"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/registry"
	"github.com/aether-shell/aether/internal/snap"
	"github.com/aether-shell/aether/internal/types"
)

// Options configures a Shell. Zero fields fall back to package defaults.
type Options struct {
	Catalog        *apps.Catalog
	Placer         registry.Placer
	Viewport       types.Size
	SnapThreshold  float64
	TitleBarHeight float64
	WrapFocus      bool
	IDGenerator    func() string

	// StartupApps are opened by New in order. Apply ignores them.
	StartupApps []apps.Kind
}

// Shell is not safe for concurrent mutation; callers serialize events.
type Shell struct {
	reg  *registry.Registry
	drag *drag.Controller

	wrapFocus bool

	viewportMu sync.RWMutex
	viewport   types.Size

	subscribers []func(models.Frame)
}

// New creates a shell with an empty desktop
func New(opts Options) *Shell {
	s := &Shell{viewport: registry.DefaultViewport}
	if !opts.Viewport.IsEmpty() {
		s.viewport = opts.Viewport
	}

	regOpts := []registry.Option{registry.WithViewport(s.Viewport)}
	if opts.IDGenerator != nil {
		regOpts = append(regOpts, registry.WithIDGenerator(opts.IDGenerator))
	}
	s.reg = registry.New(regOpts...)
	s.drag = drag.NewController(s.reg, s.Viewport)
	s.Apply(opts)

	s.reg.Subscribe(s.publish)

	for _, kind := range opts.StartupApps {
		s.reg.OpenApp(kind, models.NoContext)
	}
	return s
}

// Apply updates tunables without touching open windows
func (s *Shell) Apply(opts Options) {
	if opts.Catalog != nil {
		s.reg.SetCatalog(opts.Catalog)
	}
	if opts.Placer != nil {
		s.reg.SetPlacer(opts.Placer)
	}
	if !opts.Viewport.IsEmpty() {
		s.SetViewport(opts.Viewport)
	}
	s.drag.SetSnapOptions(snap.Options{Threshold: opts.SnapThreshold})
	s.drag.SetTitleBarHeight(opts.TitleBarHeight)
	s.wrapFocus = opts.WrapFocus
}

// Registry exposes the underlying window registry
func (s *Shell) Registry() *registry.Registry {
	return s.reg
}

// Viewport returns the current drawable area
func (s *Shell) Viewport() types.Size {
	s.viewportMu.RLock()
	defer s.viewportMu.RUnlock()
	return s.viewport
}

// SetViewport changes the drawable area. Empty sizes are ignored.
func (s *Shell) SetViewport(size types.Size) {
	if size.IsEmpty() {
		return
	}
	s.viewportMu.Lock()
	s.viewport = size
	s.viewportMu.Unlock()
	s.publish()
}

// Subscribe registers fn to receive a Frame after every change
func (s *Shell) Subscribe(fn func(models.Frame)) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *Shell) publish() {
	if len(s.subscribers) == 0 {
		return
	}
	frame := s.Frame()
	for _, fn := range s.subscribers {
		fn(frame)
	}
}

// Frame returns what a renderer should draw right now. Windows are the
// visible ones in insertion order; the dragged window carries its transient
// position.
func (s *Shell) Frame() models.Frame {
	frame := models.Frame{
		Windows:   s.reg.Visible(),
		ActiveID:  s.reg.ActiveID(),
		SnapLines: []models.SnapLine{},
		Viewport:  s.Viewport(),
	}
	if tr := s.drag.Transient(); tr != nil {
		frame.Dragging = tr.WindowID
		frame.SnapLines = tr.SnapLines
		for i := range frame.Windows {
			if frame.Windows[i].ID == tr.WindowID {
				frame.Windows[i].Position = tr.Position
			}
		}
	}
	return frame
}

// Windows returns every window, minimized ones included
func (s *Shell) Windows() []models.Window {
	return s.reg.Snapshot()
}

// OpenApp opens or focuses the app's window
func (s *Shell) OpenApp(kind apps.Kind, ctx models.Context) string {
	return s.reg.OpenApp(kind, ctx)
}

// CloseWindow closes the window, ending any drag on it
func (s *Shell) CloseWindow(id string) {
	if tr := s.drag.Transient(); tr != nil && tr.WindowID == id {
		s.drag.Abort()
	}
	s.reg.CloseWindow(id)
}

// FocusWindow raises and activates the window
func (s *Shell) FocusWindow(id string) {
	s.reg.FocusWindow(id)
}

// ToggleMinimize minimizes or restores the window
func (s *Shell) ToggleMinimize(id string) {
	s.reg.ToggleMinimize(id)
}

// MoveWindow commits a position directly, bypassing snapping
func (s *Shell) MoveWindow(id string, x, y float64) {
	s.reg.CommitPosition(id, x, y)
}

// ReplaceContext swaps the window's launch context
func (s *Shell) ReplaceContext(id string, ctx models.Context) {
	s.reg.ReplaceContext(id, ctx)
}

// Dispatch routes an assistant response through OpenApp
func (s *Shell) Dispatch(resp intent.Response) string {
	return intent.Dispatch(resp, s.reg)
}

// HitTest returns the topmost visible window under p
func (s *Shell) HitTest(p types.Point) (models.Window, bool) {
	for _, w := range focus.Stack(s.reg.Snapshot()) {
		if w.Bounds().Contains(p) {
			return w, true
		}
	}
	return models.Window{}, false
}

// PointerDown focuses the window under p and starts a drag when p is on its
// title bar. Returns the hit window ID ("" for the desktop) and whether a
// drag began.
func (s *Shell) PointerDown(p types.Point) (string, bool) {
	if s.drag.State() == drag.StateDragging {
		s.drag.PointerUp()
	}

	w, ok := s.HitTest(p)
	if !ok {
		return "", false
	}

	if s.drag.PointerDown(w.ID, p) {
		return w.ID, true
	}
	s.reg.FocusWindow(w.ID)
	return w.ID, false
}

// PointerMove updates the in-flight drag
func (s *Shell) PointerMove(p types.Point) {
	if s.drag.State() != drag.StateDragging {
		return
	}
	s.drag.PointerMove(p)
	s.publish()
}

// PointerUp ends the in-flight drag
func (s *Shell) PointerUp() {
	if s.drag.State() != drag.StateDragging {
		return
	}
	s.drag.PointerUp()
	// Snap lines clear even when nothing was committed
	s.publish()
}

// DragState returns the controller state
func (s *Shell) DragState() drag.State {
	return s.drag.State()
}

// FocusNext cycles focus through the stack and returns the focused ID
func (s *Shell) FocusNext(forward bool) string {
	id, ok := focus.Cycle(s.reg.Snapshot(), s.reg.ActiveID(), forward)
	if !ok {
		return ""
	}
	s.reg.FocusWindow(id)
	return id
}

// FocusDirection moves focus to the nearest window in direction
func (s *Shell) FocusDirection(direction types.Direction) string {
	id, ok := focus.InDirection(s.reg.Snapshot(), s.reg.ActiveID(), direction, s.wrapFocus)
	if !ok {
		logging.Debug().Str("direction", direction.String()).Msg("no window in direction")
		return ""
	}
	s.reg.FocusWindow(id)
	return id
}
