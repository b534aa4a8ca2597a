package mcp

import (
	"context"
	"encoding/json"
	"testing"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"termdeck/render"
	"termdeck/session"
)

// resultText extracts the text string from a CallToolResult.
func resultText(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := gomcp.AsTextContent(result.Content[0])
	require.True(t, ok, "result content[0] is not TextContent: %T", result.Content[0])
	return tc.Text
}

func seededReader(t *testing.T, state session.State) *StateReader {
	t.Helper()
	storage := session.NewStorage(t.TempDir())
	require.NoError(t, storage.Save(state))
	return NewStateReader(storage)
}

func TestHandleListSessions(t *testing.T) {
	reader := seededReader(t, session.State{
		Sessions: []session.InstanceData{
			{Title: "build", Program: "make watch", Path: "/repo", Branch: "main"},
			{Title: "shell", Program: "bash", Path: "/repo"},
		},
		Render: render.Stats{
			Supported:   true,
			MaxContexts: 4,
			LRUOrder:    []string{"build"},
		},
	})

	result, err := handleListSessions(reader)(context.Background(), gomcp.CallToolRequest{})
	require.NoError(t, err)

	var views []sessionView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &views))
	require.Len(t, views, 2)
	require.Equal(t, "build", views[0].Title)
	require.True(t, views[0].Accelerated)
	require.False(t, views[1].Accelerated)
}

func TestHandleListSessionsEmpty(t *testing.T) {
	reader := NewStateReader(session.NewStorage(t.TempDir()))
	result, err := handleListSessions(reader)(context.Background(), gomcp.CallToolRequest{})
	require.NoError(t, err)
	require.Contains(t, resultText(t, result), "No termdeck sessions")
}

func TestHandleRenderDiagnostics(t *testing.T) {
	reader := seededReader(t, session.State{
		Render: render.Stats{
			Supported:          true,
			MaxContexts:        8,
			ActiveContexts:     3,
			RegisteredSessions: 5,
			LRUOrder:           []string{"a", "b", "c"},
		},
	})

	result, err := handleRenderDiagnostics(reader)(context.Background(), gomcp.CallToolRequest{})
	require.NoError(t, err)

	var stats render.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &stats))
	require.True(t, stats.Supported)
	require.Equal(t, 8, stats.MaxContexts)
	require.Equal(t, []string{"a", "b", "c"}, stats.LRUOrder)
}
