package mcp

import (
	"context"
	"encoding/json"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// sessionView is the JSON representation returned by list_sessions.
type sessionView struct {
	Title       string `json:"title"`
	Program     string `json:"program"`
	Path        string `json:"path"`
	Branch      string `json:"branch,omitempty"`
	Accelerated bool   `json:"accelerated"`
}

func handleListSessions(reader *StateReader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		state, err := reader.ReadState()
		if err != nil {
			return gomcp.NewToolResultError("failed to read state: " + err.Error()), nil
		}

		accelerated := make(map[string]bool, len(state.Render.LRUOrder))
		for _, id := range state.Render.LRUOrder {
			accelerated[id] = true
		}

		views := make([]sessionView, 0, len(state.Sessions))
		for _, s := range state.Sessions {
			views = append(views, sessionView{
				Title:       s.Title,
				Program:     s.Program,
				Path:        s.Path,
				Branch:      s.Branch,
				Accelerated: accelerated[s.Title],
			})
		}

		if len(views) == 0 {
			return gomcp.NewToolResultText("No termdeck sessions found."), nil
		}

		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return gomcp.NewToolResultError("failed to marshal sessions: " + err.Error()), nil
		}
		return gomcp.NewToolResultText(string(data)), nil
	}
}

func handleRenderDiagnostics(reader *StateReader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		state, err := reader.ReadState()
		if err != nil {
			return gomcp.NewToolResultError("failed to read state: " + err.Error()), nil
		}

		data, err := json.MarshalIndent(state.Render, "", "  ")
		if err != nil {
			return gomcp.NewToolResultError("failed to marshal diagnostics: " + err.Error()), nil
		}
		return gomcp.NewToolResultText(string(data)), nil
	}
}
