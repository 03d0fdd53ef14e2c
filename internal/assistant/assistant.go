// Package assistant exposes the desktop to language-model agents as MCP
// tools. Every tool forwards to a running daemon.
package assistant

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/intent"
	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
)

// Transports accepted by Serve
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Desktop is the part of the daemon client the tools drive
type Desktop interface {
	OpenApp(ctx context.Context, kind apps.Kind, appCtx models.Context) (string, error)
	CloseWindow(ctx context.Context, id string) error
	FocusWindow(ctx context.Context, id string) error
	ListWindows(ctx context.Context) ([]models.Window, error)
	Command(ctx context.Context, resp intent.Response) (string, error)
}

// Config holds MCP server configuration
type Config struct {
	Transport string
	Port      int
}

// Server wraps the MCP server around a desktop
type Server struct {
	desktop    Desktop
	mcp        *mcpserver.MCPServer
	classifier intent.Classifier
}

// NewServer creates an MCP server with every desktop tool registered
func NewServer(desktop Desktop, version string) *Server {
	s := &Server{
		desktop: desktop,
		mcp:     mcpserver.NewMCPServer("aether", version),
	}
	// ask borrows the client's model to classify free text
	s.mcp.EnableSampling()
	s.classifier = samplingClassifier{mcp: s.mcp}
	s.registerTools()
	return s
}

// Serve blocks serving the configured transport
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "", TransportStdio:
		return mcpserver.ServeStdio(s.mcp)
	case TransportHTTP:
		addr := fmt.Sprintf(":%d", cfg.Port)
		logging.Info().Str("addr", addr).Msg("mcp server listening")
		return mcpserver.NewStreamableHTTPServer(s.mcp).Start(addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}
