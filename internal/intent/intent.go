// Package intent routes structured assistant responses into window
// operations. Every command ends up as an OpenApp call.
package intent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
)

// Intent is the command an assistant response carries
type Intent string

const (
	OpenApp       Intent = "OPEN_APP"
	SearchFiles   Intent = "SEARCH_FILES"
	CreateNote    Intent = "CREATE_NOTE"
	ToggleSetting Intent = "TOGGLE_SETTING"
	WebSearch     Intent = "WEB_SEARCH"
	Chat          Intent = "CHAT"
)

// Intents lists every recognized intent
var Intents = []Intent{OpenApp, SearchFiles, CreateNote, ToggleSetting, WebSearch, Chat}

// FallbackMessage is shown when the classifier could not be reached
const FallbackMessage = "I'm having trouble reaching the assistant. Please try again."

// Payload carries the optional arguments of a response
type Payload struct {
	Query   string `json:"query,omitempty"`
	Content string `json:"content,omitempty"`
	Setting string `json:"setting,omitempty"`
}

// Response is a classified user request
type Response struct {
	Intent  Intent   `json:"intent"`
	AppID   string   `json:"appId,omitempty"`
	Payload *Payload `json:"payload,omitempty"`
	Message string   `json:"message"`
}

// Fallback returns the chat response used in place of a failed classification
func Fallback() Response {
	return Response{Intent: Chat, Message: FallbackMessage}
}

// Validate checks the intent is known and OPEN_APP names an app
func (r Response) Validate() error {
	known := false
	for _, i := range Intents {
		if r.Intent == i {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown intent: %q", r.Intent)
	}
	if r.Intent == OpenApp && r.AppID == "" {
		return fmt.Errorf("intent %s requires appId", r.Intent)
	}
	return nil
}

// ParseResponse decodes a classifier's JSON output. Anything that does not
// decode into a valid response becomes Fallback.
func ParseResponse(data []byte) Response {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logging.Warn().Err(err).Msg("undecodable assistant response, falling back to chat")
		return Fallback()
	}
	if err := resp.Validate(); err != nil {
		logging.Warn().Err(err).Msg("invalid assistant response, falling back to chat")
		return Fallback()
	}
	return resp
}

// Classifier turns free text into a Response
type Classifier interface {
	Classify(ctx context.Context, input string) (Response, error)
}

// Interpret classifies input, converting any failure into Fallback
func Interpret(ctx context.Context, c Classifier, input string) Response {
	resp, err := c.Classify(ctx, input)
	if err != nil {
		logging.Warn().Err(err).Msg("classifier failed, falling back to chat")
		return Fallback()
	}
	if err := resp.Validate(); err != nil {
		logging.Warn().Err(err).Msg("classifier returned invalid response, falling back to chat")
		return Fallback()
	}
	return resp
}

// Opener is the window operation every intent is routed through
type Opener interface {
	OpenApp(kind apps.Kind, ctx models.Context) string
}

// Dispatch applies resp through opener and returns the affected window ID,
// or "" when nothing was opened.
func Dispatch(resp Response, opener Opener) string {
	kind, ctx, ok := Route(resp)
	if !ok {
		return ""
	}
	id := opener.OpenApp(kind, ctx)
	logging.Debug().
		Str("intent", string(resp.Intent)).
		Str("app", string(kind)).
		Str("windowId", id).
		Msg("intent dispatched")
	return id
}

// Route maps a response to the app and context it opens. ok is false for
// chat and for responses naming no known app.
func Route(resp Response) (apps.Kind, models.Context, bool) {
	p := resp.Payload
	if p == nil {
		p = &Payload{}
	}

	switch resp.Intent {
	case OpenApp:
		kind, ok := apps.ParseKind(resp.AppID)
		if !ok {
			return "", models.Context{}, false
		}
		return kind, payloadContext(resp.Payload), true
	case SearchFiles:
		return apps.Memories, queryContext(p.Query), true
	case WebSearch:
		return apps.Browser, queryContext(p.Query), true
	case ToggleSetting:
		if p.Setting == "" {
			return apps.Flow, models.NoContext, true
		}
		return apps.Flow, models.SettingContext(p.Setting), true
	case CreateNote:
		if resp.Payload == nil {
			return apps.Notepad, models.NoContext, true
		}
		return apps.Notepad, models.NoteContext(p.Content), true
	default:
		return "", models.Context{}, false
	}
}

func queryContext(q string) models.Context {
	if q == "" {
		return models.NoContext
	}
	return models.QueryContext(q)
}

// payloadContext picks the most specific field an OPEN_APP payload carries
func payloadContext(p *Payload) models.Context {
	switch {
	case p == nil:
		return models.NoContext
	case p.Content != "":
		return models.NoteContext(p.Content)
	case p.Query != "":
		return models.QueryContext(p.Query)
	case p.Setting != "":
		return models.SettingContext(p.Setting)
	default:
		return models.NoContext
	}
}
