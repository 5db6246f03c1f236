// Package mcp exposes read-only reporting tools over the Model Context
// Protocol so external agents can query team, epic and sprint reports.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/service"
)

// ServerConfig names the MCP server in the initialize handshake.
type ServerConfig struct {
	Name    string
	Version string
}

// OrgReader resolves filters and lists groups.
type OrgReader interface {
	Resolve(ctx context.Context, f service.Filter) (json.RawMessage, error)
	ListGroups(ctx context.Context) ([]org.Group, error)
	TeamNames(ctx context.Context) ([]string, error)
}

// EpicReader builds the epic progress report.
type EpicReader interface {
	EpicsByPI(ctx context.Context, pi string, f service.Filter) (json.RawMessage, error)
}

// SprintReader builds the current sprint progress report.
type SprintReader interface {
	CurrentProgress(ctx context.Context, f service.Filter) (json.RawMessage, error)
}

// ServerDeps holds the report services behind the tools. Any of them may be
// nil; the matching tools then report that they are not configured.
type ServerDeps struct {
	Orgs    OrgReader
	Epics   EpicReader
	Sprints SprintReader
}

// Server wraps an mcp-go server with the reporting tools and resources.
type Server struct {
	mcpServer *mcpserver.MCPServer
	deps      ServerDeps
}

// NewServer creates a Server and registers its tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if cfg.Name == "" {
		cfg.Name = "agilepulse"
	}
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
		deps: deps,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns a stateless streamable HTTP handler mounted at path.
func (s *Server) Handler(path string) http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(path),
		mcpserver.WithStateLess(true),
	)
}
