package models

import (
	"encoding/json"
	"fmt"

	"github.com/aether-shell/aether/internal/types"
)

// Frame is everything a render surface needs to draw the desktop
type Frame struct {
	Windows   []Window   `json:"windows"`
	ActiveID  string     `json:"activeId"`
	Dragging  string     `json:"dragging,omitempty"`
	SnapLines []SnapLine `json:"snapLines"`
	Viewport  types.Size `json:"viewport"`
}

// ParseFrame converts a generic RPC result into a Frame
func ParseFrame(result map[string]interface{}) (*Frame, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}

	return &frame, nil
}

// ToMap converts a value into the generic map carried by envelopes
func ToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return out, nil
}

// FindWindowByID returns the window with id, or nil
func (f *Frame) FindWindowByID(id string) *Window {
	for i := range f.Windows {
		if f.Windows[i].ID == id {
			return &f.Windows[i]
		}
	}
	return nil
}

// Topmost returns the window with the highest z-order, or nil
func (f *Frame) Topmost() *Window {
	var top *Window
	for i := range f.Windows {
		if top == nil || f.Windows[i].ZOrder > top.ZOrder {
			top = &f.Windows[i]
		}
	}
	return top
}
