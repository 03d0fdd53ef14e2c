package focus

import (
	"math"

	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

// axis projects window centers onto a direction of travel. along grows the
// way focus is moving; across is the perpendicular coordinate.
type axis struct {
	horizontal bool
	sign       float64
}

func axisOf(direction types.Direction) (axis, bool) {
	switch direction {
	case types.DirLeft:
		return axis{horizontal: true, sign: -1}, true
	case types.DirRight:
		return axis{horizontal: true, sign: 1}, true
	case types.DirUp:
		return axis{sign: -1}, true
	case types.DirDown:
		return axis{sign: 1}, true
	default:
		return axis{}, false
	}
}

func (a axis) along(p types.Point) float64 {
	if a.horizontal {
		return a.sign * p.X
	}
	return a.sign * p.Y
}

func (a axis) across(p types.Point) float64 {
	if a.horizontal {
		return p.Y
	}
	return p.X
}

// InDirection returns the visible window to focus when moving from the
// active one in direction. With no active window the topmost is returned.
// When nothing lies that way and wrapAround is set, focus jumps to the
// window at the far side of the desktop.
func InDirection(windows []models.Window, activeID string, direction types.Direction, wrapAround bool) (string, bool) {
	visible := Stack(windows)

	var from *models.Window
	for i := range visible {
		if visible[i].ID == activeID {
			from = &visible[i]
			break
		}
	}
	if from == nil {
		return Topmost(windows)
	}

	ax, ok := axisOf(direction)
	if !ok {
		return "", false
	}
	if id, ok := nearest(*from, visible, ax); ok {
		return id, true
	}
	if wrapAround {
		return farSide(*from, visible, ax)
	}
	return "", false
}

// nearest picks the closest window whose center lies ahead of from's.
// Sideways drift costs double so a window in line beats a closer diagonal one.
func nearest(from models.Window, windows []models.Window, ax axis) (string, bool) {
	origin := from.Bounds().Center()

	var best string
	bestCost := math.MaxFloat64
	for _, w := range windows {
		if w.ID == from.ID {
			continue
		}
		c := w.Bounds().Center()
		ahead := ax.along(c) - ax.along(origin)
		if ahead <= 0 {
			continue
		}
		cost := ahead + 2*math.Abs(ax.across(c)-ax.across(origin))
		if better(cost, w.ID, bestCost, best) {
			best, bestCost = w.ID, cost
		}
	}
	return best, best != ""
}

// farSide picks, among the windows in the rearmost tenth of the desktop
// along the axis, the one best aligned with from. Going right past the last
// column lands in the first.
func farSide(from models.Window, windows []models.Window, ax axis) (string, bool) {
	origin := from.Bounds().Center()

	rear, front := math.MaxFloat64, -math.MaxFloat64
	for _, w := range windows {
		a := ax.along(w.Bounds().Center())
		rear = math.Min(rear, a)
		front = math.Max(front, a)
	}
	band := (front - rear) / 10
	if band == 0 {
		// Single row or column
		band = 1
	}

	var best string
	bestCost := math.MaxFloat64
	for _, w := range windows {
		if w.ID == from.ID {
			continue
		}
		c := w.Bounds().Center()
		if ax.along(c) > rear+band {
			continue
		}
		cost := math.Abs(ax.across(c) - ax.across(origin))
		if better(cost, w.ID, bestCost, best) {
			best, bestCost = w.ID, cost
		}
	}
	return best, best != ""
}

// Equal costs go to the lower ID so results do not depend on input order
func better(cost float64, id string, bestCost float64, bestID string) bool {
	return cost < bestCost || (cost == bestCost && id < bestID)
}
