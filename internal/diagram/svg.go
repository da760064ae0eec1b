package diagram

import (
	"fmt"
	"math"
	"strings"
)

// renderSVG emits the placed scene as a standalone SVG document. Every
// element id is prefixed with the render id so that several rendered
// documents can coexist in one DOM without marker collisions.
func renderSVG(id string, lr *layoutResult, pal palette, fontFamily string, strict bool) string {
	w := int(math.Ceil(lr.Width))
	h := int(math.Ceil(lr.Height))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		`<svg id=%q xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family=%q>`+"\n",
		id, w, h, w, h, fontFamily))

	sb.WriteString("  <defs>\n")
	sb.WriteString(fmt.Sprintf(
		`    <marker id="%s-arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill=%q/></marker>`+"\n",
		id, pal.EdgeStroke))
	sb.WriteString("  </defs>\n")

	sb.WriteString(fmt.Sprintf(`  <rect x="0" y="0" width="%d" height="%d" fill=%q/>`+"\n", w, h, pal.Background))

	for _, e := range lr.Edges {
		marker := ""
		if e.Style == EdgeArrow {
			marker = fmt.Sprintf(` marker-end="url(#%s-arrow)"`, id)
		}
		if e.Self {
			pts := make([]string, 0, len(e.Loop))
			for _, pt := range e.Loop {
				pts = append(pts, fmt.Sprintf("%s,%s", fmtNum(pt[0]), fmtNum(pt[1])))
			}
			sb.WriteString(fmt.Sprintf(
				`  <polyline points=%q fill="none" stroke=%q stroke-width="1.5"%s/>`+"\n",
				strings.Join(pts, " "), pal.EdgeStroke, marker))
		} else {
			sb.WriteString(fmt.Sprintf(
				`  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke=%q stroke-width="1.5"%s/>`+"\n",
				fmtNum(e.X1), fmtNum(e.Y1), fmtNum(e.X2), fmtNum(e.Y2), pal.EdgeStroke, marker))
		}
		if e.Label != "" {
			sb.WriteString(fmt.Sprintf(
				`  <text x="%s" y="%s" text-anchor="middle" font-size="%d" fill=%q>%s</text>`+"\n",
				fmtNum(e.LabelX), fmtNum(e.LabelY), edgeFontSize, pal.EdgeText, escapeLabel(e.Label, strict)))
		}
	}

	for _, n := range lr.Nodes {
		switch n.Shape {
		case ShapeRound:
			sb.WriteString(fmt.Sprintf(
				`  <rect x="%s" y="%s" width="%s" height="%s" rx="10" fill=%q stroke=%q stroke-width="1.5"/>`+"\n",
				fmtNum(n.X), fmtNum(n.Y), fmtNum(n.W), fmtNum(n.H), pal.NodeFill, pal.NodeStroke))
		case ShapeDiamond:
			sb.WriteString(fmt.Sprintf(
				`  <polygon points="%s,%s %s,%s %s,%s %s,%s" fill=%q stroke=%q stroke-width="1.5"/>`+"\n",
				fmtNum(n.cx()), fmtNum(n.Y),
				fmtNum(n.X+n.W), fmtNum(n.cy()),
				fmtNum(n.cx()), fmtNum(n.Y+n.H),
				fmtNum(n.X), fmtNum(n.cy()),
				pal.NodeFill, pal.NodeStroke))
		case ShapeCircle:
			sb.WriteString(fmt.Sprintf(
				`  <circle cx="%s" cy="%s" r="%s" fill=%q stroke=%q stroke-width="1.5"/>`+"\n",
				fmtNum(n.cx()), fmtNum(n.cy()), fmtNum(n.W/2), pal.NodeFill, pal.NodeStroke))
		default:
			sb.WriteString(fmt.Sprintf(
				`  <rect x="%s" y="%s" width="%s" height="%s" fill=%q stroke=%q stroke-width="1.5"/>`+"\n",
				fmtNum(n.X), fmtNum(n.Y), fmtNum(n.W), fmtNum(n.H), pal.NodeFill, pal.NodeStroke))
		}
		sb.WriteString(fmt.Sprintf(
			`  <text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-size="%d" fill=%q>%s</text>`+"\n",
			fmtNum(n.cx()), fmtNum(n.cy()), nodeFontSize, pal.NodeText, escapeLabel(n.Label, strict)))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// fmtNum renders a coordinate without trailing zeros.
func fmtNum(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*100)/100)
}
