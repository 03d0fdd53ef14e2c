package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/shell"
	"github.com/aether-shell/aether/internal/types"
)

// ErrUnknownMethod is returned for methods the daemon does not serve
var ErrUnknownMethod = errors.New("unknown method")

var errInvalidParams = errors.New("invalid params")

// ApplyOptions swaps the shell's tunables on the event loop
func (s *Server) ApplyOptions(ctx context.Context, opts shell.Options) error {
	return s.Do(ctx, func() {
		s.shell.Apply(opts)
		logging.Info().Msg("configuration applied")
	})
}

// dispatch runs on the event loop
func (s *Server) dispatch(req *models.Request) (map[string]interface{}, *models.ErrorInfo) {
	result, err := s.handle(req.Method, req.Params)
	if err == nil {
		logging.Debug().Str("method", req.Method).Msg("request handled")
		return result, nil
	}

	code := models.CodeInternal
	switch {
	case errors.Is(err, ErrUnknownMethod):
		code = models.CodeUnknownMethod
	case errors.Is(err, errInvalidParams):
		code = models.CodeInvalidParams
	}
	return nil, &models.ErrorInfo{Code: code, Message: err.Error()}
}

func (s *Server) handle(method string, params map[string]interface{}) (map[string]interface{}, error) {
	switch method {
	case models.MethodPing:
		return map[string]interface{}{"pong": true, "timestamp": time.Now().Unix()}, nil

	case models.MethodDump:
		return models.ToMap(s.shell.Frame())

	case models.MethodWindowsList:
		return models.ToMap(models.Frame{
			Windows:   s.shell.Windows(),
			ActiveID:  s.shell.Registry().ActiveID(),
			SnapLines: []models.SnapLine{},
			Viewport:  s.shell.Viewport(),
		})

	case models.MethodAppsList:
		entries := s.shell.Registry().Catalog().Entries()
		list := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			list = append(list, map[string]interface{}{
				"kind":   string(e.Kind),
				"title":  e.Title,
				"width":  e.DefaultSize.Width,
				"height": e.DefaultSize.Height,
			})
		}
		return map[string]interface{}{"apps": list}, nil

	case models.MethodAppOpen:
		name, err := requireString(params, "app")
		if err != nil {
			return nil, err
		}
		kind, ok := apps.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown app %q", errInvalidParams, name)
		}
		appCtx, err := contextParam(params)
		if err != nil {
			return nil, err
		}
		return windowResult(s.shell.OpenApp(kind, appCtx)), nil

	case models.MethodWindowClose, models.MethodWindowFocus, models.MethodWindowMinimize:
		id, err := requireString(params, "windowId")
		if err != nil {
			return nil, err
		}
		switch method {
		case models.MethodWindowClose:
			s.shell.CloseWindow(id)
		case models.MethodWindowFocus:
			s.shell.FocusWindow(id)
		default:
			s.shell.ToggleMinimize(id)
		}
		return windowResult(id), nil

	case models.MethodWindowMove:
		id, err := requireString(params, "windowId")
		if err != nil {
			return nil, err
		}
		p, err := pointParam(params)
		if err != nil {
			return nil, err
		}
		s.shell.MoveWindow(id, p.X, p.Y)
		return windowResult(id), nil

	case models.MethodWindowContext:
		id, err := requireString(params, "windowId")
		if err != nil {
			return nil, err
		}
		appCtx, err := contextParam(params)
		if err != nil {
			return nil, err
		}
		s.shell.ReplaceContext(id, appCtx)
		return windowResult(id), nil

	case models.MethodPointerDown:
		p, err := pointParam(params)
		if err != nil {
			return nil, err
		}
		id, dragging := s.shell.PointerDown(p)
		return map[string]interface{}{"windowId": id, "dragging": dragging}, nil

	case models.MethodPointerMove:
		p, err := pointParam(params)
		if err != nil {
			return nil, err
		}
		s.shell.PointerMove(p)
		return map[string]interface{}{"state": s.shell.DragState().String()}, nil

	case models.MethodPointerUp:
		s.shell.PointerUp()
		return map[string]interface{}{"state": s.shell.DragState().String()}, nil

	case models.MethodCommand:
		resp := decodeCommand(params)
		id := s.shell.Dispatch(resp)
		return map[string]interface{}{
			"windowId": id,
			"intent":   string(resp.Intent),
			"message":  resp.Message,
		}, nil

	case models.MethodViewportSet:
		width, werr := floatParam(params, "width")
		height, herr := floatParam(params, "height")
		if werr != nil || herr != nil || width <= 0 || height <= 0 {
			return nil, fmt.Errorf("%w: width and height must be positive", errInvalidParams)
		}
		s.shell.SetViewport(types.Size{Width: width, Height: height})
		return map[string]interface{}{"width": width, "height": height}, nil

	case models.MethodFocusCycle:
		forward := true
		if v, ok := params["forward"].(bool); ok {
			forward = v
		}
		return windowResult(s.shell.FocusNext(forward)), nil

	case models.MethodFocusDirection:
		name, err := requireString(params, "direction")
		if err != nil {
			return nil, err
		}
		dir, ok := types.ParseDirection(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown direction %q", errInvalidParams, name)
		}
		return windowResult(s.shell.FocusDirection(dir)), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

func windowResult(id string) map[string]interface{} {
	return map[string]interface{}{"windowId": id}
}

// decodeCommand never fails; malformed commands become the fallback response
func decodeCommand(params map[string]interface{}) intent.Response {
	data, err := json.Marshal(params)
	if err != nil {
		return intent.Fallback()
	}
	return intent.ParseResponse(data)
}

func requireString(params map[string]interface{}, key string) (string, error) {
	s, ok := params[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: missing %s", errInvalidParams, key)
	}
	return s, nil
}

func floatParam(params map[string]interface{}, key string) (float64, error) {
	f, ok := params[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", errInvalidParams, key)
	}
	return f, nil
}

func pointParam(params map[string]interface{}) (types.Point, error) {
	x, err := floatParam(params, "x")
	if err != nil {
		return types.Point{}, err
	}
	y, err := floatParam(params, "y")
	if err != nil {
		return types.Point{}, err
	}
	return types.Point{X: x, Y: y}, nil
}

// contextParam reads the optional "context" object. The value is taken from
// the field that matches the kind.
func contextParam(params map[string]interface{}) (models.Context, error) {
	raw, ok := params["context"].(map[string]interface{})
	if !ok {
		return models.NoContext, nil
	}
	kind, _ := raw["kind"].(string)
	var value string
	switch models.ContextKind(kind) {
	case models.ContextQuery:
		value, _ = raw["text"].(string)
	case models.ContextNote:
		value, _ = raw["content"].(string)
	case models.ContextSetting:
		value, _ = raw["setting"].(string)
	}
	appCtx, err := models.ParseContext(kind, value)
	if err != nil {
		return models.Context{}, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return appCtx, nil
}
