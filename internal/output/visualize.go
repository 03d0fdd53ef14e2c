package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

// VisualizationOptions controls the appearance of the visualization
type VisualizationOptions struct {
	UseUnicode bool
	ShowIDs    bool
	MaxWidth   int
	MaxHeight  int
}

// DefaultVisualizationOptions sizes the drawing to the current terminal
func DefaultVisualizationOptions() VisualizationOptions {
	width, height := getTerminalSize()
	return VisualizationOptions{
		UseUnicode: supportsUnicode(),
		ShowIDs:    true,
		MaxWidth:   width,
		// Leave room for the header and footer
		MaxHeight: height - 4,
	}
}

// VisualizeFrame renders the desktop as it would be drawn: windows back to
// front, the focused one outlined, and any snap guides of an in-flight drag.
func VisualizeFrame(frame *models.Frame, opts VisualizationOptions) string {
	var sb strings.Builder

	header := fmt.Sprintf("Desktop %.0fx%.0f, %d windows", frame.Viewport.Width, frame.Viewport.Height, len(frame.Windows))
	if active := frame.FindWindowByID(frame.ActiveID); active != nil {
		header += fmt.Sprintf(", active %s (%s)", active.ID, active.Title)
	} else if top := frame.Topmost(); top != nil {
		header += fmt.Sprintf(", no focus, top %s (%s)", top.ID, top.Title)
	}
	sb.WriteString(header + "\n")

	sc := NewScalingContext(frame.Viewport, opts.MaxWidth, opts.MaxHeight)
	canvas := NewCanvas(sc.TermWidth, sc.TermHeight, opts.UseUnicode)
	renderFrame(frame, sc, canvas, opts.ShowIDs)
	sb.WriteString(canvas.String())
	sb.WriteString("\n")

	if frame.Dragging != "" {
		sb.WriteString(fmt.Sprintf("Dragging %s", frame.Dragging))
		for _, line := range frame.SnapLines {
			sb.WriteString(fmt.Sprintf(" | %s", formatSnapLine(line)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderFrame(frame *models.Frame, sc *ScalingContext, canvas *Canvas, showIDs bool) {
	canvas.DrawBox(0, 0, sc.TermWidth, sc.TermHeight)

	// Draw back to front so higher windows cover lower ones
	windows := make([]models.Window, len(frame.Windows))
	copy(windows, frame.Windows)
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].ZOrder < windows[j].ZOrder
	})

	for _, win := range windows {
		if !win.IsVisible() {
			continue
		}

		x, y := sc.PixelToTerminal(win.Position)
		w, h := sc.ScaleSize(win.Size)
		x, y, w, h = sc.ClampToCanvas(x, y, w, h)
		if w < 3 || h < 2 {
			continue
		}

		canvas.FillRect(x, y, w, h, ' ')
		if win.ID == frame.ActiveID {
			canvas.DrawActiveBox(x, y, w, h)
		} else {
			canvas.DrawBox(x, y, w, h)
		}

		if h > 2 {
			label := createWindowLabel(win, showIDs)
			canvas.DrawText(x+1, y+1, truncate(label, w-2))
		}
	}

	for _, line := range frame.SnapLines {
		drawSnapLine(line, sc, canvas)
	}
}

func drawSnapLine(line models.SnapLine, sc *ScalingContext, canvas *Canvas) {
	clampX := func(v int) int { return clamp(v, 0, sc.TermWidth-1) }
	clampY := func(v int) int { return clamp(v, 0, sc.TermHeight-1) }

	if line.Orientation == models.Vertical {
		x, y0 := sc.PixelToTerminal(types.Point{X: line.Position, Y: line.Start})
		_, y1 := sc.PixelToTerminal(types.Point{X: line.Position, Y: line.End})
		canvas.DrawVGuide(clampX(x), clampY(y0), clampY(y1))
		return
	}
	x0, y := sc.PixelToTerminal(types.Point{X: line.Start, Y: line.Position})
	x1, _ := sc.PixelToTerminal(types.Point{X: line.End, Y: line.Position})
	canvas.DrawHGuide(clampY(y), clampX(x0), clampX(x1))
}

func formatSnapLine(line models.SnapLine) string {
	axis := "x"
	if line.Orientation == models.Horizontal {
		axis = "y"
	}
	return fmt.Sprintf("%s=%.0f (%s)", axis, line.Position, line.Kind)
}

// createWindowLabel creates a label for a window
func createWindowLabel(win models.Window, showID bool) string {
	title := win.Title
	if title == "" {
		title = string(win.App)
	}
	if showID {
		return fmt.Sprintf("[%s] %s", shortID(win.ID), title)
	}
	return title
}

// getTerminalSize returns the current terminal dimensions
func getTerminalSize() (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		// Default to 80x24 if we can't detect
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

// supportsUnicode checks if the terminal supports Unicode
func supportsUnicode() bool {
	lang := os.Getenv("LANG")
	lcAll := os.Getenv("LC_ALL")

	return strings.Contains(lang, "UTF-8") || strings.Contains(lcAll, "UTF-8")
}

// PrintVisualization writes a colored visualization to w
func PrintVisualization(w io.Writer, frame *models.Frame, opts VisualizationOptions) {
	result := VisualizeFrame(frame, opts)

	if color.NoColor {
		fmt.Fprint(w, result)
		return
	}
	color.New(color.FgCyan).Fprint(w, result)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
