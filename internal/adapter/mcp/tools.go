package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/service"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.resolveTeamFilterTool(),
		s.epicsByPITool(),
		s.currentSprintProgressTool(),
		s.listGroupsTool(),
	)
}

func filterArgs() []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithString("team_name",
			mcplib.Description("Team or group name; empty selects all teams"),
		),
		mcplib.WithBoolean("is_group",
			mcplib.Description("Treat team_name as a group and include its subgroups"),
		),
	}
}

func (s *Server) resolveTeamFilterTool() mcpserver.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Resolve a team or group name to the teams it covers"),
	}, filterArgs()...)
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("resolve_team_filter", opts...),
		Handler: s.handleResolveTeamFilter,
	}
}

func (s *Server) epicsByPITool() mcpserver.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Per-epic progress, scope change and dependency counts for a PI"),
		mcplib.WithString("pi",
			mcplib.Required(),
			mcplib.Description("PI name, for example 2025-Q1"),
		),
	}, filterArgs()...)
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("epics_by_pi", opts...),
		Handler: s.handleEpicsByPI,
	}
}

func (s *Server) currentSprintProgressTool() mcpserver.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Progress of the active sprint of a team or group"),
	}, filterArgs()...)
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("current_sprint_progress", opts...),
		Handler: s.handleCurrentSprintProgress,
	}
}

func (s *Server) listGroupsTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("list_groups",
			mcplib.WithDescription("List all team groups with their parent group"),
		),
		Handler: s.handleListGroups,
	}
}

func filterFrom(req mcplib.CallToolRequest) service.Filter { //nolint:gocritic // hugeParam: request passed by value as in handlers
	return service.Filter{
		TeamName: strings.TrimSpace(req.GetString("team_name", "")),
		IsGroup:  req.GetBool("is_group", false),
	}
}

func (s *Server) handleResolveTeamFilter(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orgs == nil {
		return mcplib.NewToolResultError("organization reader not configured"), nil
	}
	data, err := s.deps.Orgs.Resolve(ctx, filterFrom(req))
	if err != nil {
		return toolError(ctx, "resolve_team_filter", err), nil
	}
	return toolResultJSON(data), nil
}

func (s *Server) handleEpicsByPI(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Epics == nil {
		return mcplib.NewToolResultError("epic reports not configured"), nil
	}
	pi := strings.TrimSpace(req.GetString("pi", ""))
	if pi == "" {
		return mcplib.NewToolResultError("pi is required"), nil
	}
	data, err := s.deps.Epics.EpicsByPI(ctx, pi, filterFrom(req))
	if err != nil {
		return toolError(ctx, "epics_by_pi", err), nil
	}
	return toolResultJSON(data), nil
}

func (s *Server) handleCurrentSprintProgress(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Sprints == nil {
		return mcplib.NewToolResultError("sprint reports not configured"), nil
	}
	data, err := s.deps.Sprints.CurrentProgress(ctx, filterFrom(req))
	if err != nil {
		return toolError(ctx, "current_sprint_progress", err), nil
	}
	return toolResultJSON(data), nil
}

func (s *Server) handleListGroups(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orgs == nil {
		return mcplib.NewToolResultError("organization reader not configured"), nil
	}
	groups, err := s.deps.Orgs.ListGroups(ctx)
	if err != nil {
		return toolError(ctx, "list_groups", err), nil
	}
	data, err := json.Marshal(map[string]any{"groups": groups, "count": len(groups)})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal groups", err), nil
	}
	return toolResultJSON(data), nil
}

func toolResultJSON(data []byte) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(string(data))
}

// toolError turns a report failure into a tool-level error carrying the
// same caller-facing message the HTTP API returns.
func toolError(ctx context.Context, tool string, err error) *mcplib.CallToolResult {
	var (
		nf *domain.NotFoundError
		sc *domain.SprintConflictError
	)
	switch {
	case errors.As(err, &nf):
		return mcplib.NewToolResultError(nf.Message())
	case errors.As(err, &sc):
		return mcplib.NewToolResultError(sc.Message())
	case errors.Is(err, domain.ErrValidation):
		return mcplib.NewToolResultError(strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrQuery):
		slog.ErrorContext(ctx, "mcp tool query failed", "tool", tool, "error", err)
		return mcplib.NewToolResultError("database query failed")
	default:
		slog.ErrorContext(ctx, "mcp tool failed", "tool", tool, "error", err)
		return mcplib.NewToolResultError("internal error")
	}
}
