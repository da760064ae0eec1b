package mcptools

// --- MCP Tool Types ---

// RenderDiagramInput is the input for the render_diagram tool.
type RenderDiagramInput struct {
	Text string `json:"text" jsonschema:"diagram description text"`
}

// RenderDiagramOutput is the result of the render_diagram tool.
type RenderDiagramOutput struct {
	SVG string `json:"svg,omitempty"`
}

// ValidateDiagramInput is the input for the validate_diagram tool.
type ValidateDiagramInput struct {
	Text string `json:"text" jsonschema:"diagram description text"`
	AI   bool   `json:"ai,omitempty" jsonschema:"also run the AI syntax check when one is configured"`
}

// ValidateDiagramOutput is the result of the validate_diagram tool.
type ValidateDiagramOutput struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty" jsonschema:"which check produced the message: renderer or ai"`
}

// ExportDiagramInput is the input for the export_diagram tool.
type ExportDiagramInput struct {
	Text  string `json:"text" jsonschema:"diagram description text"`
	Path  string `json:"path,omitempty" jsonschema:"file path to write the PNG to; omitted returns the bytes inline as base64"`
	Scale int    `json:"scale,omitempty" jsonschema:"raster scale factor (default 1)"`
}

// ExportDiagramOutput is the result of the export_diagram tool.
type ExportDiagramOutput struct {
	Path      string `json:"path,omitempty"`
	PNGBase64 string `json:"pngBase64,omitempty"`
	Bytes     int    `json:"bytes"`
}
