// Package mcp exposes termdeck's session roster and render-pool diagnostics
// to MCP clients over stdio. Strictly read-only: it reads the state file the
// TUI persists and never talks to a live pool (one pool per process, no
// cross-process coordination).
package mcp

import (
	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"termdeck/session"
)

const serverInstructions = "You are connected to termdeck, a multi-session terminal host. " +
	"Use list_sessions to see the open terminal sessions and render_diagnostics to inspect " +
	"the accelerated-render context pool (capacity, active contexts, LRU order). " +
	"Both tools reflect the host's last persisted snapshot."

// DeckMCPServer wraps an MCP server over the persisted termdeck state.
type DeckMCPServer struct {
	server *mcpserver.MCPServer
	reader *StateReader
}

// NewDeckMCPServer creates the read-only MCP server for a state directory.
func NewDeckMCPServer(storage *session.Storage) *DeckMCPServer {
	s := mcpserver.NewMCPServer(
		"termdeck",
		"0.1.0",
		mcpserver.WithInstructions(serverInstructions),
	)

	d := &DeckMCPServer{
		server: s,
		reader: NewStateReader(storage),
	}

	listSessions := gomcp.NewTool("list_sessions",
		gomcp.WithDescription(
			"List the terminal sessions termdeck is hosting: title, program, "+
				"working directory, branch, and whether each currently holds an "+
				"accelerated rendering context.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	d.server.AddTool(listSessions, handleListSessions(d.reader))

	renderDiagnostics := gomcp.NewTool("render_diagnostics",
		gomcp.WithDescription(
			"Inspect the accelerated-render context pool: supported flag, max and "+
				"active context counts, registered sessions, and LRU eviction order.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	d.server.AddTool(renderDiagnostics, handleRenderDiagnostics(d.reader))

	return d
}

// Serve runs the server over stdio until the client disconnects.
func (d *DeckMCPServer) Serve() error {
	return mcpserver.ServeStdio(d.server)
}
