package output

import (
	"github.com/aether-shell/aether/internal/types"
)

// border is the number of terminal cells reserved around the desktop
const border = 1

// ScalingContext maps viewport pixels onto terminal cells
type ScalingContext struct {
	Viewport types.Size

	// Terminal dimensions in characters
	TermWidth  int
	TermHeight int

	ScaleX float64
	ScaleY float64
}

// NewScalingContext fits the viewport into a termWidth x termHeight canvas.
// Terminal cells are about twice as tall as wide, so the vertical scale is
// halved before fitting.
func NewScalingContext(viewport types.Size, termWidth, termHeight int) *ScalingContext {
	if viewport.IsEmpty() {
		viewport = types.Size{Width: 1280, Height: 800}
	}
	if termWidth < 10 {
		termWidth = 10
	}
	if termHeight < 5 {
		termHeight = 5
	}

	availWidth := float64(termWidth - 2*border)
	availHeight := float64(termHeight - 2*border)

	// Preserve the aspect ratio: one scale for both axes, in cell units
	scale := availWidth / viewport.Width
	if s := availHeight * 2 / viewport.Height; s < scale {
		scale = s
	}

	sc := &ScalingContext{
		Viewport: viewport,
		ScaleX:   scale,
		ScaleY:   scale / 2,
	}
	sc.TermWidth = int(viewport.Width*sc.ScaleX) + 2*border
	sc.TermHeight = int(viewport.Height*sc.ScaleY) + 2*border
	return sc
}

// PixelToTerminal converts viewport coordinates to canvas coordinates
func (sc *ScalingContext) PixelToTerminal(p types.Point) (int, int) {
	return int(p.X*sc.ScaleX) + border, int(p.Y*sc.ScaleY) + border
}

// ScaleSize converts pixel dimensions to terminal character dimensions
func (sc *ScalingContext) ScaleSize(s types.Size) (int, int) {
	termW := int(s.Width * sc.ScaleX)
	termH := int(s.Height * sc.ScaleY)

	// Minimum size of 3x2 for visibility
	if termW < 3 {
		termW = 3
	}
	if termH < 2 {
		termH = 2
	}
	return termW, termH
}

// ClampToCanvas trims a box so it stays inside the canvas
func (sc *ScalingContext) ClampToCanvas(x, y, w, h int) (int, int, int, int) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > sc.TermWidth {
		w = sc.TermWidth - x
	}
	if y+h > sc.TermHeight {
		h = sc.TermHeight - y
	}
	return x, y, w, h
}
