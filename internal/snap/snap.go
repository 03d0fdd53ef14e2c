// Package snap corrects a proposed window position so its edges and center
// stick to nearby viewport and window guides. It never mutates its inputs.
package snap

import (
	"fmt"
	"math"

	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

// DefaultThreshold is the snap distance in pixels
const DefaultThreshold = 20.0

// Options tunes the engine
type Options struct {
	Threshold float64
}

func (o Options) threshold() float64 {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// Result is the corrected position and the guides that produced it
type Result struct {
	Position types.Point
	Lines    []models.SnapLine
}

// target is where an axis snapped to. span holds the rectangle whose extent
// on the other axis the guide line should cover, nil for viewport guides.
type target struct {
	origin float64
	guide  float64
	kind   models.SnapKind
	rule   string
	span   *types.Rect
}

// axis tracks the running best candidate for one axis
type axis struct {
	best  float64
	found *target
}

func (a *axis) consider(edge, guide, origin float64, kind models.SnapKind, rule string, span *types.Rect) {
	d := math.Abs(edge - guide)
	if d < a.best {
		a.best = d
		a.found = &target{origin: origin, guide: guide, kind: kind, rule: rule, span: span}
	}
}

// Compute snaps moving, proposed at the given top-left, against the viewport
// and the visible windows in others. Windows sharing moving's ID are ignored.
func Compute(moving models.Window, proposed types.Point, others []models.Window, viewport types.Size, opts Options) Result {
	th := opts.threshold()
	w, h := moving.Size.Width, moving.Size.Height
	r := moving.BoundsAt(proposed)

	x := axis{best: th}
	y := axis{best: th}

	// Viewport edges, then viewport center
	x.consider(r.Left(), 0, 0, models.SnapScreen, "left", nil)
	x.consider(r.Right(), viewport.Width, viewport.Width-w, models.SnapScreen, "right", nil)
	y.consider(r.Top(), 0, 0, models.SnapScreen, "top", nil)
	y.consider(r.Bottom(), viewport.Height, viewport.Height-h, models.SnapScreen, "bottom", nil)

	vc := viewport.Center()
	c := r.Center()
	x.consider(c.X, vc.X, vc.X-w/2, models.SnapCenter, "center", nil)
	y.consider(c.Y, vc.Y, vc.Y-h/2, models.SnapCenter, "center", nil)

	for i := range others {
		o := others[i]
		if o.ID == moving.ID || !o.IsVisible() {
			continue
		}
		ob := o.Bounds()
		oc := ob.Center()
		span := &ob

		// Adjacency: touching edges
		x.consider(r.Left(), ob.Right(), ob.Right(), models.SnapWindow, o.ID+"-adjacent-right", span)
		x.consider(r.Right(), ob.Left(), ob.Left()-w, models.SnapWindow, o.ID+"-adjacent-left", span)
		y.consider(r.Top(), ob.Bottom(), ob.Bottom(), models.SnapWindow, o.ID+"-adjacent-bottom", span)
		y.consider(r.Bottom(), ob.Top(), ob.Top()-h, models.SnapWindow, o.ID+"-adjacent-top", span)

		// Alignment: same edges
		x.consider(r.Left(), ob.Left(), ob.Left(), models.SnapWindow, o.ID+"-align-left", span)
		x.consider(r.Right(), ob.Right(), ob.Right()-w, models.SnapWindow, o.ID+"-align-right", span)
		y.consider(r.Top(), ob.Top(), ob.Top(), models.SnapWindow, o.ID+"-align-top", span)
		y.consider(r.Bottom(), ob.Bottom(), ob.Bottom()-h, models.SnapWindow, o.ID+"-align-bottom", span)

		x.consider(c.X, oc.X, oc.X-w/2, models.SnapCenter, o.ID+"-center", span)
		y.consider(c.Y, oc.Y, oc.Y-h/2, models.SnapCenter, o.ID+"-center", span)
	}

	pos := proposed
	if x.found != nil {
		pos.X = x.found.origin
	}
	if y.found != nil {
		pos.Y = y.found.origin
	}

	final := moving.BoundsAt(pos)
	lines := make([]models.SnapLine, 0, 2)
	if x.found != nil {
		start, end := 0.0, viewport.Height
		if x.found.span != nil {
			start = math.Min(final.Top(), x.found.span.Top())
			end = math.Max(final.Bottom(), x.found.span.Bottom())
		}
		lines = append(lines, models.SnapLine{
			ID:          lineID("x", x.found),
			Orientation: models.Vertical,
			Kind:        x.found.kind,
			Position:    x.found.guide,
			Start:       start,
			End:         end,
		})
	}
	if y.found != nil {
		start, end := 0.0, viewport.Width
		if y.found.span != nil {
			start = math.Min(final.Left(), y.found.span.Left())
			end = math.Max(final.Right(), y.found.span.Right())
		}
		lines = append(lines, models.SnapLine{
			ID:          lineID("y", y.found),
			Orientation: models.Horizontal,
			Kind:        y.found.kind,
			Position:    y.found.guide,
			Start:       start,
			End:         end,
		})
	}

	return Result{Position: pos, Lines: lines}
}

func lineID(axis string, t *target) string {
	return fmt.Sprintf("%s-%s-%s-%g", axis, t.kind, t.rule, t.guide)
}
