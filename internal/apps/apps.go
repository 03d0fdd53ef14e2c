// Package apps describes the applications the shell can host and the
// title/default-size lookup used when a window is created.
package apps

import (
	"sort"

	"github.com/aether-shell/aether/internal/types"
)

// Kind identifies a hosted application. At most one window per Kind exists.
type Kind string

const (
	Omni     Kind = "omni"
	Memories Kind = "memories"
	Flow     Kind = "flow"
	Notepad  Kind = "notepad"
	Browser  Kind = "browser"
	Studio   Kind = "studio"
)

// Kinds lists every known application in menu order.
var Kinds = []Kind{Omni, Memories, Flow, Notepad, Browser, Studio}

// ParseKind converts a string to a known Kind
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// AppConfig is the creation-time configuration for a window of one app
type AppConfig struct {
	Title       string     `json:"title" yaml:"title"`
	DefaultSize types.Size `json:"defaultSize" yaml:"defaultSize"`
}

// Catalog maps every known Kind to its AppConfig
type Catalog struct {
	entries map[Kind]AppConfig
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	return &Catalog{entries: map[Kind]AppConfig{
		Omni:     {Title: "Omni Assistant", DefaultSize: types.Size{Width: 500, Height: 600}},
		Memories: {Title: "Memories", DefaultSize: types.Size{Width: 800, Height: 550}},
		Flow:     {Title: "Flow Automations", DefaultSize: types.Size{Width: 450, Height: 500}},
		Notepad:  {Title: "Notes", DefaultSize: types.Size{Width: 400, Height: 400}},
		Browser:  {Title: "Browser", DefaultSize: types.Size{Width: 900, Height: 600}},
		Studio:   {Title: "Studio", DefaultSize: types.Size{Width: 960, Height: 640}},
	}}
}

// WithOverrides returns a copy of c where non-zero fields in overrides
// replace the defaults. Unknown kinds are ignored.
func (c *Catalog) WithOverrides(overrides map[Kind]AppConfig) *Catalog {
	out := &Catalog{entries: make(map[Kind]AppConfig, len(c.entries))}
	for k, v := range c.entries {
		out.entries[k] = v
	}
	for k, o := range overrides {
		cur, ok := out.entries[k]
		if !ok {
			continue
		}
		if o.Title != "" {
			cur.Title = o.Title
		}
		if o.DefaultSize.Width > 0 {
			cur.DefaultSize.Width = o.DefaultSize.Width
		}
		if o.DefaultSize.Height > 0 {
			cur.DefaultSize.Height = o.DefaultSize.Height
		}
		out.entries[k] = cur
	}
	return out
}

// Lookup returns the configuration for kind. It is total over Kinds.
func (c *Catalog) Lookup(kind Kind) (AppConfig, bool) {
	cfg, ok := c.entries[kind]
	return cfg, ok
}

// Entry pairs a Kind with its configuration for listing
type Entry struct {
	Kind Kind
	AppConfig
}

// Entries returns all catalog entries sorted by kind name
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for k, v := range c.entries {
		out = append(out, Entry{Kind: k, AppConfig: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
