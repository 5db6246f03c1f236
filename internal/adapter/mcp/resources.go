package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"agilepulse://teams",
			"Team Names",
			mcplib.WithResourceDescription("Names of all teams, sorted"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTeamsResource,
	)
}

func (s *Server) handleTeamsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := `{"error":"organization reader not configured"}`
	if s.deps.Orgs != nil {
		names, err := s.deps.Orgs.TeamNames(ctx)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		data, err := json.Marshal(map[string]any{"team_names": names, "count": len(names)})
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
