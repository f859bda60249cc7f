// Package mcp exposes the validation engine as Model Context Protocol tools
// over streamable HTTP.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/auth"
)

// EndpointPath is where the MCP transport is mounted.
const EndpointPath = "/mcp"

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance. hooks may be nil.
func NewServer(name, version string, hooks *server.Hooks, logger *zap.Logger) *Server {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}
	if hooks != nil {
		opts = append(opts, server.WithHooks(hooks))
	}

	return &Server{
		mcp:    server.NewMCPServer(name, version, opts...),
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates the stateless HTTP transport. Routing to
// EndpointPath is done by the mux in Handler.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// Handler mounts the transport at EndpointPath. When mw is set every MCP
// request must carry a valid bearer token, and metadata, when set, is served
// at the protected resource metadata path.
func (s *Server) Handler(mw *auth.Middleware, metadata *auth.ProtectedResourceMetadata) http.Handler {
	var transport http.Handler = s.NewStreamableHTTPServer()
	if mw != nil {
		transport = mw.RequireAuth(transport)
	}

	mux := http.NewServeMux()
	mux.Handle(EndpointPath, transport)
	if metadata != nil {
		mux.Handle(auth.ProtectedResourceMetadataPath, auth.HandleProtectedResourceMetadata(*metadata, s.logger))
	}

	s.logger.Info("MCP handler ready",
		zap.String("path", EndpointPath),
		zap.Bool("auth", mw != nil))
	return mux
}
