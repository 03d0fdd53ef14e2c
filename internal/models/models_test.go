package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/types"
)

func TestWindowVisibility(t *testing.T) {
	tests := []struct {
		name string
		win  Window
		want bool
	}{
		{"open", Window{IsOpen: true}, true},
		{"minimized", Window{IsOpen: true, IsMinimized: true}, false},
		{"closed", Window{IsOpen: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.win.IsVisible(); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindowBounds(t *testing.T) {
	w := Window{Position: types.Point{X: 100, Y: 50}, Size: types.Size{Width: 400, Height: 300}}
	want := types.Rect{X: 100, Y: 50, Width: 400, Height: 300}
	if got := w.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if got := w.FormatFrame(); got != "400x300 @ (100, 50)" {
		t.Errorf("FormatFrame() = %q", got)
	}
}

func TestParseContext(t *testing.T) {
	tests := []struct {
		kind    string
		value   string
		want    Context
		wantErr bool
	}{
		{"", "", NoContext, false},
		{"none", "ignored", NoContext, false},
		{"query", "beach photos", QueryContext("beach photos"), false},
		{"note", "buy milk", NoteContext("buy milk"), false},
		{"setting", "dark-mode", SettingContext("dark-mode"), false},
		{"bogus", "x", Context{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := ParseContext(tt.kind, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContext() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseContext() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContextIsEmpty(t *testing.T) {
	if !(Context{}).IsEmpty() || !NoContext.IsEmpty() {
		t.Error("zero and none contexts should be empty")
	}
	if QueryContext("").IsEmpty() {
		t.Error("query context with empty text is still a supplied context")
	}
}

func TestParseFrame(t *testing.T) {
	frame := Frame{
		Windows: []Window{{
			ID: "w1", App: apps.Notepad, Title: "Notes", IsOpen: true, ZOrder: 3,
			Position: types.Point{X: 10, Y: 20}, Size: types.Size{Width: 400, Height: 400},
			Context: NoteContext("hi"),
		}},
		ActiveID:  "w1",
		SnapLines: []SnapLine{{ID: "x-screen-0", Orientation: Vertical, Kind: SnapScreen}},
		Viewport:  types.Size{Width: 1280, Height: 800},
	}

	m, err := ToMap(frame)
	if err != nil {
		t.Fatalf("ToMap() error = %v", err)
	}
	got, err := ParseFrame(m)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if diff := cmp.Diff(frame, *got); diff != "" {
		t.Errorf("ParseFrame() mismatch (-want +got):\n%s", diff)
	}
	if w := got.FindWindowByID("w1"); w == nil || w.Title != "Notes" {
		t.Errorf("FindWindowByID() = %v", w)
	}
	if got.FindWindowByID("missing") != nil {
		t.Error("FindWindowByID() should return nil for unknown id")
	}
}

func TestEnvelopeOmitsEmptySections(t *testing.T) {
	data, err := json.Marshal(NewRequest("r1", "ping", nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["response"]; ok {
		t.Error("request envelope should not carry a response section")
	}
	if raw["type"] != TypeRequest {
		t.Errorf("type = %v, want request", raw["type"])
	}
}

func TestErrorResponse(t *testing.T) {
	env := NewErrorResponse("r1", CodeUnknownMethod, "unknown method: x")
	if !env.Response.IsError() || env.Response.GetError() != "unknown method: x" {
		t.Errorf("error response = %+v", env.Response)
	}
}
