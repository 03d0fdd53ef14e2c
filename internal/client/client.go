package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

const (
	DefaultSocketPath = "/tmp/aether.sock"
	DefaultTimeout    = 10 * time.Second
)

// Client talks to the aether daemon. Requests are serialized, so a Client
// may be shared between goroutines.
type Client struct {
	mu   sync.Mutex
	conn *Connection
}

// NewClient creates a new daemon client
func NewClient(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn: NewConnection(socketPath, timeout),
	}
}

// Connect establishes connection to the server
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Connect()
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// request is a helper to send a request and get the response
func (c *Client) request(ctx context.Context, method string, params map[string]interface{}) (*models.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.conn.IsConnected() {
		if err := c.conn.Connect(); err != nil {
			return nil, err
		}
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	return c.conn.SendRequest(ctx, req)
}

// CallMethod sends a generic RPC request with the given method and parameters
func (c *Client) CallMethod(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.request(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("server error: %s", resp.GetError())
	}

	return resp.Result, nil
}

// Ping sends a ping request to test connectivity
func (c *Client) Ping(ctx context.Context) (map[string]interface{}, error) {
	return c.CallMethod(ctx, models.MethodPing, nil)
}

// Dump retrieves the current render frame
func (c *Client) Dump(ctx context.Context) (*models.Frame, error) {
	result, err := c.CallMethod(ctx, models.MethodDump, map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	return models.ParseFrame(result)
}

// ListWindows returns every window including minimized ones
func (c *Client) ListWindows(ctx context.Context) ([]models.Window, error) {
	result, err := c.CallMethod(ctx, models.MethodWindowsList, nil)
	if err != nil {
		return nil, err
	}
	frame, err := models.ParseFrame(result)
	if err != nil {
		return nil, err
	}
	return frame.Windows, nil
}

// ListApps returns the daemon's app catalog
func (c *Client) ListApps(ctx context.Context) ([]apps.Entry, error) {
	result, err := c.CallMethod(ctx, models.MethodAppsList, nil)
	if err != nil {
		return nil, err
	}
	raw, _ := result["apps"].([]interface{})
	entries := make([]apps.Entry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		e := apps.Entry{Kind: apps.Kind(stringField(m, "kind"))}
		e.Title = stringField(m, "title")
		e.DefaultSize = types.Size{Width: floatField(m, "width"), Height: floatField(m, "height")}
		entries = append(entries, e)
	}
	return entries, nil
}

// OpenApp opens or focuses an app and returns its window ID
func (c *Client) OpenApp(ctx context.Context, kind apps.Kind, appCtx models.Context) (string, error) {
	params := map[string]interface{}{"app": string(kind)}
	if !appCtx.IsEmpty() {
		params["context"] = contextParams(appCtx)
	}
	result, err := c.CallMethod(ctx, models.MethodAppOpen, params)
	if err != nil {
		return "", err
	}
	return stringField(result, "windowId"), nil
}

// CloseWindow closes a window
func (c *Client) CloseWindow(ctx context.Context, id string) error {
	_, err := c.CallMethod(ctx, models.MethodWindowClose, map[string]interface{}{"windowId": id})
	return err
}

// FocusWindow raises and activates a window
func (c *Client) FocusWindow(ctx context.Context, id string) error {
	_, err := c.CallMethod(ctx, models.MethodWindowFocus, map[string]interface{}{"windowId": id})
	return err
}

// ToggleMinimize minimizes or restores a window
func (c *Client) ToggleMinimize(ctx context.Context, id string) error {
	_, err := c.CallMethod(ctx, models.MethodWindowMinimize, map[string]interface{}{"windowId": id})
	return err
}

// MoveWindow commits a position without snapping
func (c *Client) MoveWindow(ctx context.Context, id string, x, y float64) error {
	_, err := c.CallMethod(ctx, models.MethodWindowMove, map[string]interface{}{"windowId": id, "x": x, "y": y})
	return err
}

// ReplaceContext swaps a window's context
func (c *Client) ReplaceContext(ctx context.Context, id string, appCtx models.Context) error {
	_, err := c.CallMethod(ctx, models.MethodWindowContext, map[string]interface{}{
		"windowId": id,
		"context":  contextParams(appCtx),
	})
	return err
}

// PointerDown sends a pointer press and returns the hit window and whether a drag began
func (c *Client) PointerDown(ctx context.Context, p types.Point) (string, bool, error) {
	result, err := c.CallMethod(ctx, models.MethodPointerDown, map[string]interface{}{"x": p.X, "y": p.Y})
	if err != nil {
		return "", false, err
	}
	dragging, _ := result["dragging"].(bool)
	return stringField(result, "windowId"), dragging, nil
}

// PointerMove sends a pointer move
func (c *Client) PointerMove(ctx context.Context, p types.Point) error {
	_, err := c.CallMethod(ctx, models.MethodPointerMove, map[string]interface{}{"x": p.X, "y": p.Y})
	return err
}

// PointerUp sends a pointer release
func (c *Client) PointerUp(ctx context.Context) error {
	_, err := c.CallMethod(ctx, models.MethodPointerUp, nil)
	return err
}

// Command forwards an assistant response and returns the affected window ID
func (c *Client) Command(ctx context.Context, resp intent.Response) (string, error) {
	params, err := models.ToMap(resp)
	if err != nil {
		return "", err
	}
	result, err := c.CallMethod(ctx, models.MethodCommand, params)
	if err != nil {
		return "", err
	}
	return stringField(result, "windowId"), nil
}

// SetViewport changes the daemon's drawable area
func (c *Client) SetViewport(ctx context.Context, size types.Size) error {
	_, err := c.CallMethod(ctx, models.MethodViewportSet, map[string]interface{}{"width": size.Width, "height": size.Height})
	return err
}

// FocusCycle focuses the next (or previous) window in the stack
func (c *Client) FocusCycle(ctx context.Context, forward bool) (string, error) {
	result, err := c.CallMethod(ctx, models.MethodFocusCycle, map[string]interface{}{"forward": forward})
	if err != nil {
		return "", err
	}
	return stringField(result, "windowId"), nil
}

// FocusDirection focuses the nearest window in direction
func (c *Client) FocusDirection(ctx context.Context, direction types.Direction) (string, error) {
	result, err := c.CallMethod(ctx, models.MethodFocusDirection, map[string]interface{}{"direction": direction.String()})
	if err != nil {
		return "", err
	}
	return stringField(result, "windowId"), nil
}

// Watch streams frames until ctx is cancelled. It uses its own connection
// so the client stays usable for requests.
func (c *Client) Watch(ctx context.Context, fn func(*models.Frame)) error {
	stream := NewConnection(c.conn.socketPath, c.conn.timeout)
	if err := stream.Connect(); err != nil {
		return err
	}
	defer stream.Close()

	req := models.NewRequest(uuid.New().String(), models.MethodSubscribe, nil)
	return stream.Stream(ctx, req, func(ev *models.Event) {
		if ev.EventType != models.EventFrame {
			return
		}
		frame, err := models.ParseFrame(ev.Data)
		if err != nil {
			return
		}
		fn(frame)
	})
}

func contextParams(c models.Context) map[string]interface{} {
	return map[string]interface{}{
		"kind":    string(c.Kind),
		"text":    c.Text,
		"content": c.Content,
		"setting": c.Setting,
	}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]interface{}, key string) float64 {
	f, _ := m[key].(float64)
	return f
}
