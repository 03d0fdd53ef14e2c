package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aether-shell/aether/internal/assistant"
	"github.com/aether-shell/aether/internal/client"
	"github.com/aether-shell/aether/internal/config"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/server"
	"github.com/aether-shell/aether/internal/shell"
)

var (
	serveConfigPath string
	serveLogStderr  bool
	serveNoWatch    bool

	mcpTransport string
	mcpPort      int
)

// serveCmd runs the daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the desktop daemon",
	Long: `Runs the daemon that owns the desktop. Clients connect over a Unix socket.
The config file is watched and valid edits are applied live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveLogStderr {
			logging.InitWriter(os.Stderr)
			if debugMode {
				logging.SetDebug(true)
			}
		}

		cfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		socket := socketPath
		if !cmd.Flags().Changed("socket") && cfg.Settings.Socket != "" {
			socket = cfg.Settings.Socket
		}

		sh := shell.New(cfg.ShellOptions())
		srv := server.New(sh, socket)

		ctx, stop := signalContext()
		defer stop()

		if !serveNoWatch {
			watchPath := serveConfigPath
			if watchPath == "" {
				watchPath = config.GetConfigPath()
			}
			if _, err := os.Stat(filepath.Dir(watchPath)); err == nil {
				err := config.Watch(ctx, watchPath, func(next *config.Config) {
					if err := srv.ApplyOptions(ctx, next.ShellOptions()); err != nil && !errors.Is(err, context.Canceled) {
						logging.Warn().Err(err).Msg("apply config")
					}
				})
				if err != nil {
					logging.Warn().Err(err).Msg("config watch disabled")
				}
			}
		}

		infoColor.Printf("aether %s listening on %s\n", version, socket)
		return srv.Serve(ctx)
	},
}

// mcpCmd exposes the desktop to agents
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve desktop tools over the Model Context Protocol",
	Long: `Starts an MCP server whose tools open apps, route assistant intents and
manage windows on a running daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(socketPath, timeout)
		defer c.Close()

		srv := assistant.NewServer(c, version)
		return srv.Serve(assistant.Config{Transport: mcpTransport, Port: mcpPort})
	},
}

// configCmd is the parent command for config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the effective configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(firstArg(args))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if jsonOutput {
			return printJSON(cfg)
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(firstArg(args))
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		successColor.Println("✓ Configuration is valid")
		keyColor.Print("  Placement: ")
		fmt.Println(cfg.Settings.Placement)
		keyColor.Print("  Snap threshold: ")
		fmt.Println(cfg.Settings.SnapThreshold)
		keyColor.Print("  App overrides: ")
		fmt.Println(len(cfg.Apps))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		successColor.Printf("✓ Created default config at: %s\n", path)
		return nil
	},
}

func addDaemonCommands() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Config file (default ~/.config/aether/config.yaml)")
	serveCmd.Flags().BoolVar(&serveLogStderr, "log-stderr", false, "Log to stderr instead of the log file")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload the config file on change")

	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", assistant.TransportStdio, "stdio or streamable-http")
	mcpCmd.Flags().IntVar(&mcpPort, "port", 8765, "Port for streamable-http")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
