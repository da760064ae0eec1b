package export

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// opKind discriminates the drawable element types the diagram engine
// emits. Anything outside this subset fails the decode.
type opKind int

const (
	opRect opKind = iota
	opCircle
	opPolygon
	opPolyline
	opLine
	opText
)

// drawOp is one paintable element in document order.
type drawOp struct {
	Kind opKind

	X, Y, W, H, RX float64 // rect
	CX, CY, R      float64 // circle
	X1, Y1, X2, Y2 float64 // line
	Points         [][2]float64

	Text     string
	FontSize float64
	Anchor   string
	Baseline string

	Fill        color.RGBA
	HasFill     bool
	Stroke      color.RGBA
	HasStroke   bool
	StrokeWidth float64
	ArrowEnd    bool
}

// scene is a decoded document: intrinsic size plus ordered draw ops.
type scene struct {
	Width  float64
	Height float64
	Ops    []drawOp
}

type rectElem struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	W      float64 `xml:"width,attr"`
	H      float64 `xml:"height,attr"`
	RX     float64 `xml:"rx,attr"`
	Fill   string  `xml:"fill,attr"`
	Stroke string  `xml:"stroke,attr"`
	SW     string  `xml:"stroke-width,attr"`
}

type circleElem struct {
	CX     float64 `xml:"cx,attr"`
	CY     float64 `xml:"cy,attr"`
	R      float64 `xml:"r,attr"`
	Fill   string  `xml:"fill,attr"`
	Stroke string  `xml:"stroke,attr"`
	SW     string  `xml:"stroke-width,attr"`
}

type polyElem struct {
	Points string `xml:"points,attr"`
	Fill   string `xml:"fill,attr"`
	Stroke string `xml:"stroke,attr"`
	SW     string `xml:"stroke-width,attr"`
	Marker string `xml:"marker-end,attr"`
}

type lineElem struct {
	X1     float64 `xml:"x1,attr"`
	Y1     float64 `xml:"y1,attr"`
	X2     float64 `xml:"x2,attr"`
	Y2     float64 `xml:"y2,attr"`
	Stroke string  `xml:"stroke,attr"`
	SW     string  `xml:"stroke-width,attr"`
	Marker string  `xml:"marker-end,attr"`
}

type textElem struct {
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Anchor   string  `xml:"text-anchor,attr"`
	Baseline string  `xml:"dominant-baseline,attr"`
	FontSize float64 `xml:"font-size,attr"`
	Fill     string  `xml:"fill,attr"`
	Body     string  `xml:",chardata"`
}

// decodeScene parses the SVG subset produced by the diagram engine into
// an ordered draw list. Marker definitions under defs are skipped; the
// rasterizer rebuilds arrowheads from marker-end references instead.
func decodeScene(r io.Reader) (*scene, error) {
	dec := xml.NewDecoder(r)
	sc := &scene{}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "svg":
			sawRoot = true
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "width":
					sc.Width, _ = strconv.ParseFloat(a.Value, 64)
				case "height":
					sc.Height, _ = strconv.ParseFloat(a.Value, 64)
				}
			}
		case "defs":
			if err := dec.Skip(); err != nil {
				return nil, err
			}
		case "rect":
			var el rectElem
			if err := dec.DecodeElement(&el, &se); err != nil {
				return nil, err
			}
			op := drawOp{Kind: opRect, X: el.X, Y: el.Y, W: el.W, H: el.H, RX: el.RX, StrokeWidth: strokeWidth(el.SW)}
			op.Fill, op.HasFill = parseColor(el.Fill)
			op.Stroke, op.HasStroke = parseColor(el.Stroke)
			sc.Ops = append(sc.Ops, op)
		case "circle":
			var el circleElem
			if err := dec.DecodeElement(&el, &se); err != nil {
				return nil, err
			}
			op := drawOp{Kind: opCircle, CX: el.CX, CY: el.CY, R: el.R, StrokeWidth: strokeWidth(el.SW)}
			op.Fill, op.HasFill = parseColor(el.Fill)
			op.Stroke, op.HasStroke = parseColor(el.Stroke)
			sc.Ops = append(sc.Ops, op)
		case "polygon", "polyline":
			var el polyElem
			if err := dec.DecodeElement(&el, &se); err != nil {
				return nil, err
			}
			pts, err := parsePoints(el.Points)
			if err != nil {
				return nil, err
			}
			kind := opPolygon
			if se.Name.Local == "polyline" {
				kind = opPolyline
			}
			op := drawOp{Kind: kind, Points: pts, StrokeWidth: strokeWidth(el.SW), ArrowEnd: el.Marker != ""}
			op.Fill, op.HasFill = parseColor(el.Fill)
			op.Stroke, op.HasStroke = parseColor(el.Stroke)
			sc.Ops = append(sc.Ops, op)
		case "line":
			var el lineElem
			if err := dec.DecodeElement(&el, &se); err != nil {
				return nil, err
			}
			op := drawOp{Kind: opLine, X1: el.X1, Y1: el.Y1, X2: el.X2, Y2: el.Y2, StrokeWidth: strokeWidth(el.SW), ArrowEnd: el.Marker != ""}
			op.Stroke, op.HasStroke = parseColor(el.Stroke)
			sc.Ops = append(sc.Ops, op)
		case "text":
			var el textElem
			if err := dec.DecodeElement(&el, &se); err != nil {
				return nil, err
			}
			op := drawOp{
				Kind:     opText,
				X:        el.X,
				Y:        el.Y,
				Text:     el.Body,
				FontSize: el.FontSize,
				Anchor:   el.Anchor,
				Baseline: el.Baseline,
			}
			if op.FontSize <= 0 {
				op.FontSize = 14
			}
			op.Fill, op.HasFill = parseColor(el.Fill)
			sc.Ops = append(sc.Ops, op)
		default:
			return nil, fmt.Errorf("unsupported element <%s>", se.Name.Local)
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("no svg root element")
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		return nil, fmt.Errorf("markup has no usable dimensions (%gx%g)", sc.Width, sc.Height)
	}
	return sc, nil
}

func strokeWidth(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// parseColor understands the #rgb and #rrggbb forms the engine palettes
// use. Empty values and "none" report no paint.
func parseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return color.RGBA{}, false
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, true
}

func parsePoints(s string) ([][2]float64, error) {
	fields := strings.Fields(s)
	pts := make([][2]float64, 0, len(fields))
	for _, f := range fields {
		xy := strings.SplitN(f, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("malformed point %q", f)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q", f)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q", f)
		}
		pts = append(pts, [2]float64{x, y})
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("point list %q too short", s)
	}
	return pts, nil
}
