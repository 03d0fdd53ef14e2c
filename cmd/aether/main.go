package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aether-shell/aether/internal/client"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
)

var version = "0.1.0"

var (
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
	debugMode  bool

	// Color functions
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	keyColor     = color.New(color.FgYellow)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "aether",
	Short: "Aether - assistant-driven desktop shell",
	Long: `Aether hosts a desktop of app windows behind a local daemon.

The daemon owns window state, drag and snap behavior, and routes assistant
commands into windows. This CLI starts the daemon and talks to it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// pingCmd tests daemon connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		start := time.Now()
		result, err := c.Ping(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}

		successColor.Println("✓ Pong received")
		fmt.Printf("Response time: %v\n", elapsed)
		if ts, ok := result["timestamp"].(float64); ok {
			fmt.Printf("Daemon timestamp: %v\n", time.Unix(int64(ts), 0))
		}
		return nil
	},
}

// dumpCmd prints the current render frame
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the current desktop frame as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		frame, err := c.Dump(context.Background())
		if err != nil {
			return fmt.Errorf("failed to dump frame: %w", err)
		}
		return printJSON(frame)
	},
}

// watchCmd streams frames as JSON lines
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream desktop frames as they change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		c := newClient()
		defer c.Close()

		enc := json.NewEncoder(os.Stdout)
		return c.Watch(ctx, func(frame *models.Frame) {
			if jsonOutput {
				enc.Encode(frame)
				return
			}
			summary := fmt.Sprintf("%d windows, active %s", len(frame.Windows), orDash(frame.ActiveID))
			if frame.Dragging != "" {
				summary += fmt.Sprintf(", dragging %s with %d snap lines", frame.Dragging, len(frame.SnapLines))
			}
			infoColor.Printf("[%s] ", time.Now().Format("15:04:05"))
			fmt.Println(summary)
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", client.DefaultSocketPath, "Unix socket path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(watchCmd)

	addWindowCommands()
	addDaemonCommands()

	// Disable color if requested, enable debug logging if requested
	cobra.OnInitialize(func() {
		if noColor {
			color.NoColor = true
		}
		if debugMode {
			logging.SetDebug(true)
		}
	})
}

func main() {
	if err := logging.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		logging.Close()
		os.Exit(1)
	}
}

// Helper functions

func newClient() *client.Client {
	return client.NewClient(socketPath, timeout)
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printError(msg string) {
	if noColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	} else {
		errorColor.Fprint(os.Stderr, "✗ Error: ")
		fmt.Fprintln(os.Stderr, msg)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
