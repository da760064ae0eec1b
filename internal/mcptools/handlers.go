package mcptools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/export"
	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// DiagramService handles MCP tool calls. It holds the same two
// validators the editing pipeline uses; a nil AI checker degrades
// validate_diagram to renderer-only.
type DiagramService struct {
	render pipeline.RenderChecker
	ai     aicheck.Checker
}

// NewDiagramService creates a DiagramService over the given checkers.
func NewDiagramService(render pipeline.RenderChecker, ai aicheck.Checker) *DiagramService {
	return &DiagramService{render: render, ai: ai}
}

// RenderDiagram renders diagram text to SVG. A rejected diagram comes
// back as a tool error carrying the renderer's message.
func (s *DiagramService) RenderDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenderDiagramInput,
) (*mcp.CallToolResult, RenderDiagramOutput, error) {
	res := s.render.Check(ctx, input.Text)
	if res.Err != nil {
		return toolError(res.Err.Message), RenderDiagramOutput{}, nil
	}
	if res.Empty() {
		return toolError("nothing to render: text is empty"), RenderDiagramOutput{}, nil
	}
	return nil, RenderDiagramOutput{SVG: res.Markup}, nil
}

// ValidateDiagram runs one un-debounced validation pass and reports
// the merged verdict.
func (s *DiagramService) ValidateDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateDiagramInput,
) (*mcp.CallToolResult, ValidateDiagramOutput, error) {
	ai := s.ai
	if !input.AI {
		ai = nil
	}
	out := pipeline.CheckOnce(ctx, s.render, ai, input.Text)

	result := ValidateDiagramOutput{Valid: out.Valid(), Source: out.Source}
	if out.Message != nil {
		result.Message = *out.Message
	}
	return nil, result, nil
}

// ExportDiagram renders text and encodes the result as PNG, writing to
// input.Path when given or returning the bytes inline otherwise.
func (s *DiagramService) ExportDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportDiagramInput,
) (*mcp.CallToolResult, ExportDiagramOutput, error) {
	res := s.render.Check(ctx, input.Text)
	if res.Err != nil {
		return toolError(res.Err.Message), ExportDiagramOutput{}, nil
	}

	data, err := export.EncodePNG(res.Markup, export.WithScale(input.Scale))
	if err != nil {
		return toolError(err.Error()), ExportDiagramOutput{}, nil
	}

	out := ExportDiagramOutput{Bytes: len(data)}
	if input.Path != "" {
		if err := os.WriteFile(input.Path, data, 0o644); err != nil {
			return nil, ExportDiagramOutput{}, fmt.Errorf("write %s: %w", input.Path, err)
		}
		out.Path = input.Path
	} else {
		out.PNGBase64 = base64.StdEncoding.EncodeToString(data)
	}
	return nil, out, nil
}

// toolError builds a tool-level failure result, keeping the failure
// inside the protocol rather than surfacing it as a call error.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
