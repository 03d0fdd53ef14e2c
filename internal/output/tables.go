package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/models"
)

// PrintWindowsTable prints windows topmost first
func PrintWindowsTable(w io.Writer, windows []models.Window, activeID string) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "App", "Title", "Frame", "Z", "State", "Context")

	sorted := make([]models.Window, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ZOrder > sorted[j].ZOrder
	})

	for _, win := range sorted {
		table.Append(
			shortID(win.ID),
			string(win.App),
			truncate(win.Title, 24),
			win.FormatFrame(),
			fmt.Sprintf("%d", win.ZOrder),
			windowState(win, activeID),
			truncate(win.Context.String(), 30),
		)
	}

	table.Render()
}

// PrintAppsTable prints the app catalog
func PrintAppsTable(w io.Writer, entries []apps.Entry) {
	table := tablewriter.NewWriter(w)
	table.Header("App", "Title", "Default Size")

	for _, e := range entries {
		table.Append(
			string(e.Kind),
			e.Title,
			fmt.Sprintf("%.0fx%.0f", e.DefaultSize.Width, e.DefaultSize.Height),
		)
	}

	table.Render()
}

// PrintWindowDetail prints detailed information about a single window
func PrintWindowDetail(w io.Writer, win models.Window, activeID string) {
	fmt.Fprintf(w, "Window ID: %s\n", win.ID)
	fmt.Fprintf(w, "App: %s\n", win.App)
	fmt.Fprintf(w, "Title: %s\n", win.Title)
	fmt.Fprintf(w, "Position: (%.0f, %.0f)\n", win.Position.X, win.Position.Y)
	fmt.Fprintf(w, "Size: %.0fx%.0f\n", win.Size.Width, win.Size.Height)
	fmt.Fprintf(w, "Z-Order: %d\n", win.ZOrder)
	fmt.Fprintf(w, "State: %s\n", windowState(win, activeID))
	fmt.Fprintf(w, "Context: %s\n", win.Context.String())
}

func windowState(win models.Window, activeID string) string {
	switch {
	case win.IsMinimized:
		return "minimized"
	case win.ID == activeID:
		return "active"
	default:
		return "open"
	}
}

// shortID keeps generated UUIDs readable in narrow columns
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
