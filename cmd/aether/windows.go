package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/client"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/output"
	"github.com/aether-shell/aether/internal/types"
)

// Context flags shared by open and context
var (
	ctxQuery   string
	ctxNote    string
	ctxSetting string
)

// listCmd is the parent command for list subcommands
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List windows or apps",
}

var listWindowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List every window, minimized ones included",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		ctx := context.Background()
		windows, err := c.ListWindows(ctx)
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		if jsonOutput {
			return printJSON(windows)
		}
		if len(windows) == 0 {
			infoColor.Println("No windows open")
			return nil
		}

		frame, err := c.Dump(ctx)
		if err != nil {
			return err
		}
		output.PrintWindowsTable(os.Stdout, windows, frame.ActiveID)
		return nil
	},
}

var listAppsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List the app catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		entries, err := c.ListApps(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list apps: %w", err)
		}
		if jsonOutput {
			return printJSON(entries)
		}
		output.PrintAppsTable(os.Stdout, entries)
		return nil
	},
}

// Visualization flags
var (
	showASCII   bool
	showUnicode bool
	showNoIDs   bool
	showWidth   int
	showHeight  int
	showFollow  bool
)

// showCmd draws the desktop in the terminal
var showCmd = &cobra.Command{
	Use:   "show [window]",
	Short: "Visualize the desktop, or show one window's details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()
		ctx := context.Background()

		if len(args) == 1 {
			return showWindow(ctx, c, args[0])
		}

		opts := getVisualizationOptions()
		if !showFollow {
			frame, err := c.Dump(ctx)
			if err != nil {
				return fmt.Errorf("failed to get frame: %w", err)
			}
			output.PrintVisualization(os.Stdout, frame, opts)
			return nil
		}

		sigCtx, stop := signalContext()
		defer stop()
		return c.Watch(sigCtx, func(frame *models.Frame) {
			// Clear screen and home the cursor before each redraw
			fmt.Print("\033[H\033[2J")
			output.PrintVisualization(os.Stdout, frame, opts)
		})
	},
}

func showWindow(ctx context.Context, c *client.Client, arg string) error {
	windows, err := c.ListWindows(ctx)
	if err != nil {
		return err
	}
	id, err := matchWindow(windows, arg)
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.ID != id {
			continue
		}
		if jsonOutput {
			return printJSON(w)
		}
		frame, err := c.Dump(ctx)
		if err != nil {
			return err
		}
		output.PrintWindowDetail(os.Stdout, w, frame.ActiveID)
		return nil
	}
	return fmt.Errorf("window %q not found", arg)
}

// openCmd opens or focuses an app
var openCmd = &cobra.Command{
	Use:   "open <app>",
	Short: "Open an app, or focus it if already open",
	Long: `Opens the app's window. If the app already has a window it is raised and
focused instead, with its context replaced when one is given.

Apps: omni, memories, flow, notepad, browser, studio`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := apps.ParseKind(args[0])
		if !ok {
			return fmt.Errorf("unknown app %q", args[0])
		}
		appCtx, err := contextFromFlags()
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		id, err := c.OpenApp(context.Background(), kind, appCtx)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", kind, err)
		}
		if jsonOutput {
			return printJSON(map[string]string{"windowId": id})
		}
		successColor.Printf("✓ Opened %s ", kind)
		fmt.Println(id)
		return nil
	},
}

// contextCmd replaces a window's context
var contextCmd = &cobra.Command{
	Use:   "context <window>",
	Short: "Replace a window's context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := contextFromFlags()
		if err != nil {
			return err
		}
		return withWindow(args[0], "Updated context of", func(ctx context.Context, c *client.Client, id string) error {
			return c.ReplaceContext(ctx, id, appCtx)
		})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <window>",
	Short: "Close a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWindow(args[0], "Closed", func(ctx context.Context, c *client.Client, id string) error {
			return c.CloseWindow(ctx, id)
		})
	},
}

var minimizeCmd = &cobra.Command{
	Use:   "minimize <window>",
	Short: "Minimize or restore a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWindow(args[0], "Toggled", func(ctx context.Context, c *client.Client, id string) error {
			return c.ToggleMinimize(ctx, id)
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <window> <x> <y>",
	Short: "Place a window at a position without snapping",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		return withWindow(args[0], "Moved", func(ctx context.Context, c *client.Client, id string) error {
			return c.MoveWindow(ctx, id, p.X, p.Y)
		})
	},
}

var dragSteps int

// dragCmd simulates a title-bar drag so snapping applies
var dragCmd = &cobra.Command{
	Use:   "drag <window> <x> <y>",
	Short: "Drag a window by its title bar to a position, snapping on the way",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		if dragSteps < 1 {
			dragSteps = 1
		}

		c := newClient()
		defer c.Close()
		ctx := context.Background()

		windows, err := c.ListWindows(ctx)
		if err != nil {
			return err
		}
		id, err := matchWindow(windows, args[0])
		if err != nil {
			return err
		}
		var win *models.Window
		for i := range windows {
			if windows[i].ID == id {
				win = &windows[i]
			}
		}
		if win == nil || !win.IsVisible() {
			return fmt.Errorf("window %q is not visible", args[0])
		}

		// Grab just inside the top-left of the title bar
		grab := types.Point{X: 8, Y: 8}
		start := win.Position.Add(grab)
		hit, dragging, err := c.PointerDown(ctx, start)
		if err != nil {
			return err
		}
		if hit != id || !dragging {
			return fmt.Errorf("title bar of %s is covered by %s", id, orDash(hit))
		}

		end := target.Add(grab)
		var lines []models.SnapLine
		for i := 1; i <= dragSteps; i++ {
			t := float64(i) / float64(dragSteps)
			p := types.Point{X: start.X + (end.X-start.X)*t, Y: start.Y + (end.Y-start.Y)*t}
			if err := c.PointerMove(ctx, p); err != nil {
				return err
			}
		}
		if frame, err := c.Dump(ctx); err == nil {
			lines = frame.SnapLines
		}
		if err := c.PointerUp(ctx); err != nil {
			return err
		}

		final, err := c.ListWindows(ctx)
		if err != nil {
			return err
		}
		for _, w := range final {
			if w.ID != id {
				continue
			}
			if jsonOutput {
				return printJSON(map[string]interface{}{"window": w, "snapLines": lines})
			}
			successColor.Printf("✓ Dropped %s at (%.0f, %.0f)\n", id, w.Position.X, w.Position.Y)
			for _, l := range lines {
				keyColor.Print("  snapped: ")
				fmt.Println(l.ID)
			}
		}
		return nil
	},
}

// focusCmd focuses a window by id, cycle or direction
var focusCmd = &cobra.Command{
	Use:   "focus <window|next|prev|left|right|up|down>",
	Short: "Focus a window",
	Long: `Focuses a window by ID (or unique ID prefix, or app name), cycles
through the stack with next/prev, or moves focus spatially with a direction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()
		ctx := context.Background()

		var (
			id  string
			err error
		)
		switch arg := args[0]; arg {
		case "next", "prev":
			id, err = c.FocusCycle(ctx, arg == "next")
		default:
			if dir, ok := types.ParseDirection(arg); ok {
				id, err = c.FocusDirection(ctx, dir)
				break
			}
			return withWindow(arg, "Focused", func(ctx context.Context, c *client.Client, id string) error {
				return c.FocusWindow(ctx, id)
			})
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"windowId": id})
		}
		if id == "" {
			infoColor.Println("No window to focus")
			return nil
		}
		successColor.Printf("✓ Focused %s\n", id)
		return nil
	},
}

// commandCmd routes an assistant response
var commandCmd = &cobra.Command{
	Use:   "command <json|->",
	Short: "Route an assistant response into the desktop",
	Long: `Takes a classified assistant response, for example
  {"intent":"WEB_SEARCH","payload":{"query":"weather"},"message":"Searching"}
and opens the window it calls for. Use - to read the response from stdin.
Malformed responses are treated as chat and open nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := []byte(args[0])
		if args[0] == "-" {
			var err error
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}
		resp := intent.ParseResponse(data)

		c := newClient()
		defer c.Close()

		id, err := c.Command(context.Background(), resp)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"windowId": id, "intent": string(resp.Intent), "message": resp.Message})
		}
		if resp.Message != "" {
			infoColor.Println(resp.Message)
		}
		if id != "" {
			successColor.Printf("✓ %s -> %s\n", resp.Intent, id)
		}
		return nil
	},
}

var viewportCmd = &cobra.Command{
	Use:   "viewport <width> <height>",
	Short: "Resize the desktop",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		if p.X <= 0 || p.Y <= 0 {
			return fmt.Errorf("viewport must be positive, got %sx%s", args[0], args[1])
		}

		c := newClient()
		defer c.Close()
		if err := c.SetViewport(context.Background(), types.Size{Width: p.X, Height: p.Y}); err != nil {
			return err
		}
		successColor.Printf("✓ Viewport %.0fx%.0f\n", p.X, p.Y)
		return nil
	},
}

func addWindowCommands() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listWindowsCmd)
	listCmd.AddCommand(listAppsCmd)

	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showASCII, "ascii", false, "Force ASCII mode (no Unicode)")
	showCmd.Flags().BoolVar(&showUnicode, "unicode", false, "Force Unicode mode")
	showCmd.Flags().BoolVar(&showNoIDs, "no-ids", false, "Hide window IDs")
	showCmd.Flags().IntVar(&showWidth, "width", 0, "Override terminal width")
	showCmd.Flags().IntVar(&showHeight, "height", 0, "Override terminal height")
	showCmd.Flags().BoolVarP(&showFollow, "follow", "f", false, "Redraw on every change")

	for _, cmd := range []*cobra.Command{openCmd, contextCmd} {
		cmd.Flags().StringVar(&ctxQuery, "query", "", "Open with a search query")
		cmd.Flags().StringVar(&ctxNote, "note", "", "Open with note content")
		cmd.Flags().StringVar(&ctxSetting, "setting", "", "Open on a setting")
		cmd.MarkFlagsMutuallyExclusive("query", "note", "setting")
	}

	dragCmd.Flags().IntVar(&dragSteps, "steps", 10, "Pointer moves between grab and drop")

	rootCmd.AddCommand(openCmd, contextCmd, closeCmd, minimizeCmd, moveCmd, dragCmd, focusCmd, commandCmd, viewportCmd)
}

// withWindow resolves a window argument and runs fn against it
func withWindow(arg, verb string, fn func(context.Context, *client.Client, string) error) error {
	c := newClient()
	defer c.Close()
	ctx := context.Background()

	windows, err := c.ListWindows(ctx)
	if err != nil {
		return err
	}
	id, err := matchWindow(windows, arg)
	if err != nil {
		return err
	}
	if err := fn(ctx, c, id); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]string{"windowId": id})
	}
	successColor.Printf("✓ %s %s\n", verb, id)
	return nil
}

// matchWindow accepts a full ID, a unique ID prefix, or an app name
func matchWindow(windows []models.Window, arg string) (string, error) {
	var prefixed []string
	for _, w := range windows {
		if w.ID == arg {
			return w.ID, nil
		}
		if strings.HasPrefix(w.ID, arg) {
			prefixed = append(prefixed, w.ID)
		}
	}
	if kind, ok := apps.ParseKind(arg); ok {
		for _, w := range windows {
			if w.App == kind {
				return w.ID, nil
			}
		}
	}
	switch len(prefixed) {
	case 0:
		return "", fmt.Errorf("no window matches %q", arg)
	case 1:
		return prefixed[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous: %s", arg, strings.Join(prefixed, ", "))
	}
}

func contextFromFlags() (models.Context, error) {
	switch {
	case ctxNote != "":
		return models.NoteContext(ctxNote), nil
	case ctxQuery != "":
		return models.QueryContext(ctxQuery), nil
	case ctxSetting != "":
		return models.SettingContext(ctxSetting), nil
	}
	return models.NoContext, nil
}

func parsePoint(xs, ys string) (types.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	return types.Point{X: x, Y: y}, nil
}

// getVisualizationOptions builds options from flags
func getVisualizationOptions() output.VisualizationOptions {
	opts := output.DefaultVisualizationOptions()

	if showASCII {
		opts.UseUnicode = false
	}
	if showUnicode {
		opts.UseUnicode = true
	}
	if showNoIDs {
		opts.ShowIDs = false
	}
	if showWidth > 0 {
		opts.MaxWidth = showWidth
	}
	if showHeight > 0 {
		opts.MaxHeight = showHeight
	}
	return opts
}
