// Package mcptools exposes the diagram pipeline as MCP tools so agent
// clients can render, validate, and export diagrams without the HTTP
// surface.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewDiagramMCPServer creates an MCP server with the three diagram
// tools registered.
func NewDiagramMCPServer(svc *DiagramService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mermpad",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_diagram",
		Description: "Render mermaid-style flowchart text to SVG markup. Fails with the renderer's own message when the text is malformed.",
	}, svc.RenderDiagram)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_diagram",
		Description: "Validate flowchart text and report the merged verdict. Runs the renderer check, and the AI syntax check as well when requested and configured; an AI rejection outranks a renderer acceptance.",
	}, svc.ValidateDiagram)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_diagram",
		Description: "Render flowchart text and encode it as a PNG with fixed margins and background. Writes to a path when given, otherwise returns the bytes inline as base64.",
	}, svc.ExportDiagram)

	return server
}

// ServeStdio runs the MCP server over stdin/stdout until the client
// disconnects or ctx is cancelled.
func ServeStdio(ctx context.Context, svc *DiagramService) error {
	server := NewDiagramMCPServer(svc)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns a streamable HTTP handler for the MCP server,
// suitable for mounting inside the main API mux.
func HTTPHandler(svc *DiagramService) http.Handler {
	server := NewDiagramMCPServer(svc)
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
