// Package drag turns pointer events on a window's title bar into snapped
// moves, committing the final position once per gesture.
package drag

import (
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/snap"
	"github.com/aether-shell/aether/internal/types"
)

// DefaultTitleBarHeight is the height of the drag handle in pixels
const DefaultTitleBarHeight = 36.0

// State of the gesture state machine
type State int

const (
	StateIdle State = iota
	StateDragging
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Store is the part of the window registry the controller drives
type Store interface {
	Get(id string) (models.Window, bool)
	Snapshot() []models.Window
	FocusWindow(id string)
	CommitPosition(id string, x, y float64)
}

// Transient is the in-flight visual state of a drag
type Transient struct {
	WindowID  string
	Position  types.Point
	SnapLines []models.SnapLine
}

// Controller runs one drag gesture at a time
type Controller struct {
	store          Store
	viewport       func() types.Size
	snapOpts       snap.Options
	titleBarHeight float64

	state    State
	windowID string
	offset   types.Point
	position types.Point
	lines    []models.SnapLine
}

// NewController creates an idle controller
func NewController(store Store, viewport func() types.Size) *Controller {
	return &Controller{
		store:          store,
		viewport:       viewport,
		titleBarHeight: DefaultTitleBarHeight,
	}
}

// SetSnapOptions changes the snap threshold for subsequent moves
func (c *Controller) SetSnapOptions(opts snap.Options) {
	c.snapOpts = opts
}

// SetTitleBarHeight changes the drag handle height
func (c *Controller) SetTitleBarHeight(h float64) {
	if h > 0 {
		c.titleBarHeight = h
	}
}

// TitleBarHeight returns the drag handle height
func (c *Controller) TitleBarHeight() float64 {
	return c.titleBarHeight
}

// InDragRegion reports whether pointer lies on w's title bar
func (c *Controller) InDragRegion(w models.Window, pointer types.Point) bool {
	bar := types.Rect{X: w.Position.X, Y: w.Position.Y, Width: w.Size.Width, Height: c.titleBarHeight}
	return bar.Contains(pointer)
}

// PointerDown starts dragging window id when pointer is on its title bar.
// The window is focused before the gesture begins. A drag already in flight
// is finished first. Returns whether the gesture was claimed.
func (c *Controller) PointerDown(id string, pointer types.Point) bool {
	if c.state == StateDragging {
		c.finish()
	}

	w, ok := c.store.Get(id)
	if !ok || !w.IsVisible() || !c.InDragRegion(w, pointer) {
		return false
	}

	c.store.FocusWindow(id)

	c.state = StateDragging
	c.windowID = id
	c.offset = pointer.Sub(w.Position)
	c.position = w.Position
	c.lines = nil

	logging.Debug().
		Str("windowId", id).
		Float64("offsetX", c.offset.X).
		Float64("offsetY", c.offset.Y).
		Msg("drag started")
	return true
}

// PointerMove moves the dragged window to follow pointer, snapping against
// the current registry contents and viewport.
func (c *Controller) PointerMove(pointer types.Point) {
	if c.state != StateDragging {
		return
	}

	w, ok := c.store.Get(c.windowID)
	if !ok {
		logging.Debug().Str("windowId", c.windowID).Msg("dragged window vanished, drag dropped")
		c.reset()
		return
	}
	if !w.IsVisible() {
		// Hidden mid-gesture: keep where it was last drawn
		logging.Debug().Str("windowId", c.windowID).Msg("dragged window hidden, drag ended")
		c.finish()
		return
	}

	proposed := pointer.Sub(c.offset)
	proposed.Y = max(0, proposed.Y)

	res := snap.Compute(w, proposed, c.store.Snapshot(), c.viewport(), c.snapOpts)
	c.position = res.Position
	c.lines = res.Lines
}

// PointerUp commits the last computed position and ends the gesture
func (c *Controller) PointerUp() {
	if c.state != StateDragging {
		return
	}
	c.finish()
}

// Cancel ends the gesture the same way PointerUp does
func (c *Controller) Cancel() {
	c.PointerUp()
}

// Abort ends the gesture without committing. Used when the dragged window
// is about to be removed.
func (c *Controller) Abort() {
	if c.state != StateDragging {
		return
	}
	logging.Debug().Str("windowId", c.windowID).Msg("drag aborted")
	c.reset()
}

// State returns the current gesture state
func (c *Controller) State() State {
	return c.state
}

// Transient returns the in-flight drag, or nil when idle
func (c *Controller) Transient() *Transient {
	if c.state != StateDragging {
		return nil
	}
	lines := make([]models.SnapLine, len(c.lines))
	copy(lines, c.lines)
	return &Transient{WindowID: c.windowID, Position: c.position, SnapLines: lines}
}

func (c *Controller) finish() {
	id, pos := c.windowID, c.position
	c.reset()

	if _, ok := c.store.Get(id); !ok {
		return
	}
	c.store.CommitPosition(id, pos.X, pos.Y)
	logging.Debug().Str("windowId", id).Float64("x", pos.X).Float64("y", pos.Y).Msg("drag committed")
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.windowID = ""
	c.offset = types.Point{}
	c.position = types.Point{}
	c.lines = nil
}
