package models

// RPC method names understood by the daemon
const (
	MethodPing           = "ping"
	MethodDump           = "dump"
	MethodWindowsList    = "windows.list"
	MethodAppsList       = "apps.list"
	MethodAppOpen        = "app.open"
	MethodWindowClose    = "window.close"
	MethodWindowFocus    = "window.focus"
	MethodWindowMinimize = "window.minimize"
	MethodWindowMove     = "window.move"
	MethodWindowContext  = "window.context"
	MethodPointerDown    = "pointer.down"
	MethodPointerMove    = "pointer.move"
	MethodPointerUp      = "pointer.up"
	MethodCommand        = "command"
	MethodViewportSet    = "viewport.set"
	MethodFocusCycle     = "focus.cycle"
	MethodFocusDirection = "focus.direction"
	MethodSubscribe      = "subscribe"
)

// EventFrame is the event type streamed to subscribers
const EventFrame = "frame"
