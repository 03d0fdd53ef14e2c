package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/client"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/registry"
	"github.com/aether-shell/aether/internal/shell"
	"github.com/aether-shell/aether/internal/types"
)

func startServer(t *testing.T) (*Server, *client.Client) {
	t.Helper()

	// Unix socket paths are length limited, keep the directory short
	dir, err := os.MkdirTemp("", "aether")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "s.sock")

	n := 0
	sh := shell.New(shell.Options{
		Catalog: apps.DefaultCatalog().WithOverrides(map[apps.Kind]apps.AppConfig{
			apps.Notepad: {DefaultSize: types.Size{Width: 300, Height: 200}},
		}),
		Placer:   registry.NewCascadePlacer(types.Point{X: 100, Y: 100}, 40),
		Viewport: types.Size{Width: 1000, Height: 800},
		IDGenerator: func() string {
			n++
			return fmt.Sprintf("w%d", n)
		},
	})
	srv := New(sh, socket)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})

	c := client.NewClient(socket, 2*time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := c.Ping(context.Background()); err == nil {
			break
		}
		c.Close()
		if time.Now().After(deadline) {
			t.Fatal("server never became reachable")
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Cleanup(func() { c.Close() })
	return srv, c
}

func TestOpenAndList(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	id, err := c.OpenApp(ctx, apps.Notepad, models.NoteContext("hello"))
	if err != nil {
		t.Fatalf("OpenApp() error = %v", err)
	}
	if id != "w1" {
		t.Fatalf("OpenApp() = %q, want w1", id)
	}

	again, err := c.OpenApp(ctx, apps.Notepad, models.NoContext)
	if err != nil {
		t.Fatalf("OpenApp() error = %v", err)
	}
	if again != id {
		t.Errorf("second OpenApp() = %q, want existing %q", again, id)
	}

	windows, err := c.ListWindows(ctx)
	if err != nil {
		t.Fatalf("ListWindows() error = %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("ListWindows() len = %d, want 1", len(windows))
	}
	w := windows[0]
	if w.App != apps.Notepad || w.Context.Content != "hello" {
		t.Errorf("window = %+v, want notepad with note context", w)
	}
	if w.Position != (types.Point{X: 100, Y: 100}) {
		t.Errorf("Position = %v, want (100,100)", w.Position)
	}
}

func TestMinimizeHidesFromDump(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	id, _ := c.OpenApp(ctx, apps.Notepad, models.NoContext)
	if err := c.ToggleMinimize(ctx, id); err != nil {
		t.Fatalf("ToggleMinimize() error = %v", err)
	}

	frame, err := c.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if len(frame.Windows) != 0 {
		t.Errorf("Dump().Windows = %v, want none", frame.Windows)
	}
	if frame.SnapLines == nil {
		t.Error("Dump().SnapLines should be an empty list, not null")
	}

	all, _ := c.ListWindows(ctx)
	if len(all) != 1 || !all[0].IsMinimized {
		t.Errorf("ListWindows() = %v, want one minimized window", all)
	}
}

func TestDragOverSocket(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	id, _ := c.OpenApp(ctx, apps.Notepad, models.NoContext)

	hit, dragging, err := c.PointerDown(ctx, types.Point{X: 110, Y: 110})
	if err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if hit != id || !dragging {
		t.Fatalf("PointerDown() = (%q, %v), want (%q, true)", hit, dragging, id)
	}

	if err := c.PointerMove(ctx, types.Point{X: 12, Y: 115}); err != nil {
		t.Fatalf("PointerMove() error = %v", err)
	}
	frame, _ := c.Dump(ctx)
	if frame.Dragging != id {
		t.Errorf("Dragging = %q, want %q", frame.Dragging, id)
	}
	if len(frame.SnapLines) != 1 || frame.SnapLines[0].Kind != models.SnapScreen {
		t.Errorf("SnapLines = %v, want one screen line", frame.SnapLines)
	}

	if err := c.PointerUp(ctx); err != nil {
		t.Fatalf("PointerUp() error = %v", err)
	}
	windows, _ := c.ListWindows(ctx)
	if got := windows[0].Position; got != (types.Point{X: 0, Y: 105}) {
		t.Errorf("Position after drag = %v, want (0,105)", got)
	}
	frame, _ = c.Dump(ctx)
	if frame.Dragging != "" || len(frame.SnapLines) != 0 {
		t.Errorf("frame after release = %+v, want no drag", frame)
	}
}

func TestCommand(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	id, err := c.Command(ctx, intent.Response{
		Intent:  intent.WebSearch,
		Payload: &intent.Payload{Query: "golang"},
		Message: "Searching",
	})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if id == "" {
		t.Fatal("Command() opened no window")
	}

	windows, _ := c.ListWindows(ctx)
	if len(windows) != 1 || windows[0].App != apps.Browser || windows[0].Context.Text != "golang" {
		t.Errorf("windows = %+v, want a browser with query golang", windows)
	}

	id, err = c.Command(ctx, intent.Response{Intent: intent.Chat, Message: "hi"})
	if err != nil {
		t.Fatalf("Command(chat) error = %v", err)
	}
	if id != "" {
		t.Errorf("Command(chat) = %q, want no window", id)
	}

	// Malformed commands fall back to chat instead of failing
	result, err := c.CallMethod(ctx, models.MethodCommand, map[string]interface{}{"intent": "LAUNCH_ROCKET"})
	if err != nil {
		t.Fatalf("CallMethod(command) error = %v", err)
	}
	if result["intent"] != string(intent.Chat) || result["message"] != intent.FallbackMessage {
		t.Errorf("result = %v, want fallback", result)
	}
}

func TestRequestErrors(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		params map[string]interface{}
		want   string
	}{
		{"unknown method", "window.explode", nil, "unknown method"},
		{"missing window id", models.MethodWindowClose, nil, "missing windowId"},
		{"unknown app", models.MethodAppOpen, map[string]interface{}{"app": "solitaire"}, "unknown app"},
		{"bad context", models.MethodAppOpen, map[string]interface{}{
			"app":     "notepad",
			"context": map[string]interface{}{"kind": "poem"},
		}, "unknown context kind"},
		{"missing coordinates", models.MethodPointerDown, map[string]interface{}{"x": 1.0}, "missing y"},
		{"bad direction", models.MethodFocusDirection, map[string]interface{}{"direction": "sideways"}, "unknown direction"},
		{"bad viewport", models.MethodViewportSet, map[string]interface{}{"width": 0.0, "height": 10.0}, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CallMethod(ctx, tt.method, tt.params)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestUnknownWindowIsNoop(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	for _, fn := range []func(context.Context, string) error{c.CloseWindow, c.FocusWindow, c.ToggleMinimize} {
		if err := fn(ctx, "ghost"); err != nil {
			t.Errorf("operation on unknown window error = %v", err)
		}
	}
	windows, _ := c.ListWindows(ctx)
	if len(windows) != 0 {
		t.Errorf("ListWindows() = %v, want none", windows)
	}
}

func TestFocusCycleAndDirection(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	a, _ := c.OpenApp(ctx, apps.Notepad, models.NoContext)
	b, _ := c.OpenApp(ctx, apps.Omni, models.NoContext)
	c.MoveWindow(ctx, a, 0, 0)
	c.MoveWindow(ctx, b, 500, 0)

	got, err := c.FocusCycle(ctx, true)
	if err != nil {
		t.Fatalf("FocusCycle() error = %v", err)
	}
	if got != a {
		t.Errorf("FocusCycle(forward) = %q, want %q", got, a)
	}

	got, err = c.FocusDirection(ctx, types.DirRight)
	if err != nil {
		t.Fatalf("FocusDirection() error = %v", err)
	}
	if got != b {
		t.Errorf("FocusDirection(right) = %q, want %q", got, b)
	}
}

func TestWatchStreamsFrames(t *testing.T) {
	_, c := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		frames []*models.Frame
	)
	got := make(chan struct{}, 16)
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- c.Watch(ctx, func(f *models.Frame) {
			mu.Lock()
			frames = append(frames, f)
			mu.Unlock()
			got <- struct{}{}
		})
	}()

	waitFrame := func() {
		t.Helper()
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("no frame received")
		}
	}

	// The stream opens with the current desktop
	waitFrame()

	if _, err := c.OpenApp(context.Background(), apps.Notepad, models.NoContext); err != nil {
		t.Fatalf("OpenApp() error = %v", err)
	}
	waitFrame()

	mu.Lock()
	last := frames[len(frames)-1]
	mu.Unlock()
	if len(last.Windows) != 1 || last.ActiveID != "w1" {
		t.Errorf("last frame = %+v, want w1 open and active", last)
	}

	cancel()
	select {
	case err := <-watchDone:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch() did not return after cancel")
	}
}

func TestApplyOptions(t *testing.T) {
	srv, c := startServer(t)
	ctx := context.Background()

	catalog := apps.DefaultCatalog().WithOverrides(map[apps.Kind]apps.AppConfig{
		apps.Browser: {Title: "Web"},
	})
	if err := srv.ApplyOptions(ctx, shell.Options{Catalog: catalog}); err != nil {
		t.Fatalf("ApplyOptions() error = %v", err)
	}

	entries, err := c.ListApps(ctx)
	if err != nil {
		t.Fatalf("ListApps() error = %v", err)
	}
	for _, e := range entries {
		if e.Kind == apps.Browser && e.Title != "Web" {
			t.Errorf("browser title = %q, want Web", e.Title)
		}
	}
	if len(entries) != len(apps.Kinds) {
		t.Errorf("ListApps() len = %d, want %d", len(entries), len(apps.Kinds))
	}
}

func TestShutdownClosesIdleConnections(t *testing.T) {
	dir, err := os.MkdirTemp("", "aether")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "s.sock")

	srv := New(shell.New(shell.Options{}), socket)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var conn net.Conn
	deadline := time.Now().Add(2 * time.Second)
	for {
		if conn, err = net.Dial("unix", socket); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Dial() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer conn.Close()

	// The connection never sends a request, so its handler sits in a read
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return with an idle connection open")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("Read() after shutdown succeeded, want closed connection")
	} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
		t.Error("connection still open after shutdown")
	}
}
