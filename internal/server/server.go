// Package server wraps the stdio MCP endpoint the desktop shell talks to.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server carries the MCP server and its logger through setup and run.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates the chatmemd MCP server.
func New(version string, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{
		Name:    "chatmemd",
		Version: version,
	}
	return &Server{
		mcp:    mcp.NewServer(impl, nil),
		logger: logger,
	}
}

// Setup installs the request logging middleware.
func (s *Server) Setup() {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger))
}

// MCPServer exposes the underlying server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
