package models

import "fmt"

// ContextKind tags the payload carried by a Context
type ContextKind string

const (
	ContextNone    ContextKind = "none"
	ContextQuery   ContextKind = "query"
	ContextNote    ContextKind = "note"
	ContextSetting ContextKind = "setting"
)

// Context is the launch payload handed to an app. It is replaced wholesale,
// never merged. The zero value means no context was supplied.
type Context struct {
	Kind    ContextKind `json:"kind,omitempty"`
	Text    string      `json:"text,omitempty"`
	Content string      `json:"content,omitempty"`
	Setting string      `json:"setting,omitempty"`
}

// NoContext is the empty context
var NoContext = Context{Kind: ContextNone}

// QueryContext carries a search query
func QueryContext(text string) Context {
	return Context{Kind: ContextQuery, Text: text}
}

// NoteContext carries initial note content
func NoteContext(content string) Context {
	return Context{Kind: ContextNote, Content: content}
}

// SettingContext names a setting to surface
func SettingContext(setting string) Context {
	return Context{Kind: ContextSetting, Setting: setting}
}

// IsEmpty reports whether no context was supplied
func (c Context) IsEmpty() bool {
	return c.Kind == "" || c.Kind == ContextNone
}

// String renders the context for tables and logs
func (c Context) String() string {
	switch c.Kind {
	case ContextQuery:
		return fmt.Sprintf("query:%q", c.Text)
	case ContextNote:
		return fmt.Sprintf("note:%q", c.Content)
	case ContextSetting:
		return fmt.Sprintf("setting:%s", c.Setting)
	default:
		return "-"
	}
}

// ParseContext builds a Context from a kind name and a value. The value is
// stored in the field matching the kind.
func ParseContext(kind, value string) (Context, error) {
	switch ContextKind(kind) {
	case "", ContextNone:
		return NoContext, nil
	case ContextQuery:
		return QueryContext(value), nil
	case ContextNote:
		return NoteContext(value), nil
	case ContextSetting:
		return SettingContext(value), nil
	default:
		return Context{}, fmt.Errorf("unknown context kind: %s", kind)
	}
}
