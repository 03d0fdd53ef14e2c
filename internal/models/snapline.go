package models

// Orientation of a guide line
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// SnapKind describes what a guide line aligns against
type SnapKind string

const (
	SnapScreen SnapKind = "screen"
	SnapWindow SnapKind = "window"
	SnapCenter SnapKind = "center"
)

// SnapLine is a transient alignment guide shown while dragging. Position is
// the x coordinate of a vertical line or the y coordinate of a horizontal
// one; Start and End span the other axis.
type SnapLine struct {
	ID          string      `json:"id"`
	Orientation Orientation `json:"orientation"`
	Kind        SnapKind    `json:"kind"`
	Position    float64     `json:"position"`
	Start       float64     `json:"start"`
	End         float64     `json:"end"`
}
