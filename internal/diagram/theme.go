package diagram

import "strings"

// Theme names accepted by Config.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeNeutral = "neutral"
)

// Security levels accepted by Config.
const (
	SecurityStrict = "strict"
	SecurityLoose  = "loose"
)

// palette holds the fixed colors of one theme.
type palette struct {
	Background string
	NodeFill   string
	NodeStroke string
	NodeText   string
	EdgeStroke string
	EdgeText   string
}

var palettes = map[string]palette{
	ThemeDefault: {
		Background: "#ffffff",
		NodeFill:   "#ECECFF",
		NodeStroke: "#9370DB",
		NodeText:   "#333333",
		EdgeStroke: "#333333",
		EdgeText:   "#333333",
	},
	ThemeDark: {
		Background: "#1e1e1e",
		NodeFill:   "#2d2d39",
		NodeStroke: "#81a1c1",
		NodeText:   "#e8e8e8",
		EdgeStroke: "#c0c0c0",
		EdgeText:   "#c0c0c0",
	},
	ThemeNeutral: {
		Background: "#ffffff",
		NodeFill:   "#eeeeee",
		NodeStroke: "#999999",
		NodeText:   "#333333",
		EdgeStroke: "#666666",
		EdgeText:   "#666666",
	},
}

// escapeLabel makes label text safe to embed in SVG text content. Both
// levels escape XML-structural runes; strict additionally escapes quote
// runes and drops control characters.
func escapeLabel(s string, strict bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case strict && r == '"':
			b.WriteString("&quot;")
		case strict && r == '\'':
			b.WriteString("&#39;")
		case strict && r < 0x20:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
