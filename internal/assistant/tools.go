package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
)

// toolResult is what every tool reports back to the agent
type toolResult struct {
	OK       bool   `yaml:"ok"`
	Action   string `yaml:"action"`
	WindowID string `yaml:"window_id,omitempty"`
	Message  string `yaml:"message,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

func resultToText(result toolResult) string {
	b, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Sprintf("ok: %v\naction: %s\nerror: %s", result.OK, result.Action, result.Error)
	}
	return string(b)
}

func (s *Server) registerTools() {
	appNames := make([]string, 0, len(apps.Kinds))
	for _, k := range apps.Kinds {
		appNames = append(appNames, string(k))
	}
	intentNames := make([]string, 0, len(intent.Intents))
	for _, i := range intent.Intents {
		intentNames = append(intentNames, string(i))
	}

	s.mcp.AddTool(
		mcp.NewTool("open_app",
			mcp.WithDescription("Open an app window, or bring it to the front if it is already open"),
			mcp.WithString("app", mcp.Description("App to open"), mcp.Required(), mcp.Enum(appNames...)),
			mcp.WithString("query", mcp.Description("Search query to open the app with")),
			mcp.WithString("content", mcp.Description("Note text to open the app with")),
			mcp.WithString("setting", mcp.Description("Setting name to open the app with")),
		),
		s.handleOpenApp,
	)

	s.mcp.AddTool(
		mcp.NewTool("search_files",
			mcp.WithDescription("Search the user's memories and files"),
			mcp.WithString("query", mcp.Description("What to search for"), mcp.Required()),
		),
		s.intentHandler(intent.SearchFiles, "query"),
	)

	s.mcp.AddTool(
		mcp.NewTool("web_search",
			mcp.WithDescription("Search the web in the browser window"),
			mcp.WithString("query", mcp.Description("What to search for"), mcp.Required()),
		),
		s.intentHandler(intent.WebSearch, "query"),
	)

	s.mcp.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Open the notes app with the given text"),
			mcp.WithString("content", mcp.Description("Note text"), mcp.Required()),
		),
		s.intentHandler(intent.CreateNote, "content"),
	)

	s.mcp.AddTool(
		mcp.NewTool("toggle_setting",
			mcp.WithDescription("Open the automations app on a setting"),
			mcp.WithString("setting", mcp.Description("Setting name, e.g. wifi or dark_mode"), mcp.Required()),
		),
		s.intentHandler(intent.ToggleSetting, "setting"),
	)

	s.mcp.AddTool(
		mcp.NewTool("dispatch_intent",
			mcp.WithDescription("Route a classified assistant response. Unknown or malformed intents are treated as chat."),
			mcp.WithString("intent", mcp.Description("Intent name"), mcp.Required(), mcp.Enum(intentNames...)),
			mcp.WithString("app_id", mcp.Description("App for OPEN_APP")),
			mcp.WithString("query", mcp.Description("Query payload")),
			mcp.WithString("content", mcp.Description("Content payload")),
			mcp.WithString("setting", mcp.Description("Setting payload")),
			mcp.WithString("message", mcp.Description("Reply shown to the user")),
		),
		s.handleDispatch,
	)

	s.mcp.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Carry out a plain-language request such as \"find my tax receipts\". Your model classifies it through sampling; requests it cannot classify are treated as chat."),
			mcp.WithString("request", mcp.Description("What the user asked for"), mcp.Required()),
		),
		s.handleAsk,
	)

	s.mcp.AddTool(
		mcp.NewTool("close_window",
			mcp.WithDescription("Close a window by ID"),
			mcp.WithString("window_id", mcp.Description("Window ID from list_windows"), mcp.Required()),
		),
		s.handleCloseWindow,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus_window",
			mcp.WithDescription("Raise and focus a window by ID"),
			mcp.WithString("window_id", mcp.Description("Window ID from list_windows"), mcp.Required()),
		),
		s.handleFocusWindow,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_windows",
			mcp.WithDescription("List every window on the desktop, minimized ones included"),
		),
		s.handleListWindows,
	)
}

func (s *Server) handleOpenApp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringArg(params, "app")
	kind, ok := apps.ParseKind(name)
	if !ok {
		return mcp.NewToolResultError(resultToText(toolResult{
			Action: "open_app",
			Error:  fmt.Sprintf("unknown app %q", name),
		})), nil
	}

	var appCtx models.Context
	switch {
	case stringArg(params, "content") != "":
		appCtx = models.NoteContext(stringArg(params, "content"))
	case stringArg(params, "query") != "":
		appCtx = models.QueryContext(stringArg(params, "query"))
	case stringArg(params, "setting") != "":
		appCtx = models.SettingContext(stringArg(params, "setting"))
	default:
		appCtx = models.NoContext
	}

	id, err := s.desktop.OpenApp(ctx, kind, appCtx)
	return s.finish("open_app", id, "", err)
}

// intentHandler builds a handler that forwards one required string
// argument as the payload of a fixed intent
func (s *Server) intentHandler(in intent.Intent, field string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(string(in))
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value := stringArg(request.GetArguments(), field)
		if value == "" {
			return mcp.NewToolResultError(resultToText(toolResult{Action: action, Error: "missing " + field})), nil
		}

		payload := &intent.Payload{}
		switch field {
		case "query":
			payload.Query = value
		case "content":
			payload.Content = value
		case "setting":
			payload.Setting = value
		}

		id, err := s.desktop.Command(ctx, intent.Response{Intent: in, Payload: payload})
		return s.finish(action, id, "", err)
	}
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	resp := intent.Response{
		Intent:  intent.Intent(stringArg(params, "intent")),
		AppID:   stringArg(params, "app_id"),
		Message: stringArg(params, "message"),
	}
	payload := intent.Payload{
		Query:   stringArg(params, "query"),
		Content: stringArg(params, "content"),
		Setting: stringArg(params, "setting"),
	}
	if payload != (intent.Payload{}) {
		resp.Payload = &payload
	}
	if err := resp.Validate(); err != nil {
		logging.Debug().Err(err).Msg("invalid intent, falling back")
		resp = intent.Fallback()
	}

	id, err := s.desktop.Command(ctx, resp)
	return s.finish("dispatch_intent", id, resp.Message, err)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := stringArg(request.GetArguments(), "request")
	if text == "" {
		return mcp.NewToolResultError(resultToText(toolResult{Action: "ask", Error: "missing request"})), nil
	}

	resp := intent.Interpret(ctx, s.classifier, text)
	id, err := s.desktop.Command(ctx, resp)
	return s.finish("ask", id, resp.Message, err)
}

func (s *Server) handleCloseWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "window_id")
	if id == "" {
		return mcp.NewToolResultError(resultToText(toolResult{Action: "close_window", Error: "missing window_id"})), nil
	}
	return s.finish("close_window", id, "", s.desktop.CloseWindow(ctx, id))
}

func (s *Server) handleFocusWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "window_id")
	if id == "" {
		return mcp.NewToolResultError(resultToText(toolResult{Action: "focus_window", Error: "missing window_id"})), nil
	}
	return s.finish("focus_window", id, "", s.desktop.FocusWindow(ctx, id))
}

// windowEntry is the agent-facing view of a window
type windowEntry struct {
	ID        string `yaml:"id"`
	App       string `yaml:"app"`
	Title     string `yaml:"title"`
	Frame     string `yaml:"frame"`
	Minimized bool   `yaml:"minimized,omitempty"`
	Context   string `yaml:"context,omitempty"`
}

func (s *Server) handleListWindows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	windows, err := s.desktop.ListWindows(ctx)
	if err != nil {
		return mcp.NewToolResultError(resultToText(toolResult{Action: "list_windows", Error: err.Error()})), nil
	}

	entries := make([]windowEntry, 0, len(windows))
	for _, w := range windows {
		e := windowEntry{
			ID:        w.ID,
			App:       string(w.App),
			Title:     w.Title,
			Frame:     w.FormatFrame(),
			Minimized: w.IsMinimized,
		}
		if !w.Context.IsEmpty() {
			e.Context = w.Context.String()
		}
		entries = append(entries, e)
	}

	b, err := yaml.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) finish(action, windowID, message string, err error) (*mcp.CallToolResult, error) {
	result := toolResult{Action: action, WindowID: windowID, Message: message}
	if err != nil {
		result.Error = err.Error()
		logging.Warn().Err(err).Str("tool", action).Msg("tool failed")
		return mcp.NewToolResultError(resultToText(result)), nil
	}
	result.OK = true
	return mcp.NewToolResultText(resultToText(result)), nil
}

func stringArg(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}
