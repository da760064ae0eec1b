package export

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// arrowLength and arrowHalfWidth size the rebuilt arrowhead triangles,
// matching what the engine's SVG marker renders to at 1x.
const (
	arrowLength    = 8.0
	arrowHalfWidth = 3.5
)

// rasterizer paints scene ops onto an RGBA surface. Scene coordinates
// shift by margin and multiply by scale on their way to pixels.
type rasterizer struct {
	img    *image.RGBA
	margin float64
	scale  float64
}

func (r *rasterizer) px(x, y float64) (float64, float64) {
	return (x + r.margin) * r.scale, (y + r.margin) * r.scale
}

func (r *rasterizer) paint(op drawOp) error {
	switch op.Kind {
	case opRect:
		x, y := r.px(op.X, op.Y)
		w, h := op.W*r.scale, op.H*r.scale
		if op.HasFill {
			if op.RX > 0 {
				r.fillRoundRect(x, y, w, h, op.RX*r.scale, op.Fill)
			} else {
				r.fillRect(x, y, w, h, op.Fill)
			}
		}
		if op.HasStroke {
			r.strokeRect(x, y, w, h, op.StrokeWidth*r.scale, op.Stroke)
		}
	case opCircle:
		cx, cy := r.px(op.CX, op.CY)
		rad := op.R * r.scale
		if op.HasFill {
			r.fillCircle(cx, cy, rad, op.Fill)
		}
		if op.HasStroke {
			r.strokeCircle(cx, cy, rad, op.StrokeWidth*r.scale, op.Stroke)
		}
	case opPolygon:
		pts := r.pxPoints(op.Points)
		if op.HasFill {
			r.fillPolygon(pts, op.Fill)
		}
		if op.HasStroke {
			for i := range pts {
				next := pts[(i+1)%len(pts)]
				r.line(pts[i][0], pts[i][1], next[0], next[1], op.StrokeWidth*r.scale, op.Stroke)
			}
		}
	case opPolyline:
		pts := r.pxPoints(op.Points)
		if op.HasStroke {
			for i := 0; i+1 < len(pts); i++ {
				r.line(pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1], op.StrokeWidth*r.scale, op.Stroke)
			}
			if op.ArrowEnd && len(pts) >= 2 {
				last, prev := pts[len(pts)-1], pts[len(pts)-2]
				r.arrowhead(prev, last, op.Stroke)
			}
		}
	case opLine:
		x1, y1 := r.px(op.X1, op.Y1)
		x2, y2 := r.px(op.X2, op.Y2)
		if op.HasStroke {
			r.line(x1, y1, x2, y2, op.StrokeWidth*r.scale, op.Stroke)
			if op.ArrowEnd {
				r.arrowhead([2]float64{x1, y1}, [2]float64{x2, y2}, op.Stroke)
			}
		}
	case opText:
		if op.HasFill && op.Text != "" {
			x, y := r.px(op.X, op.Y)
			return r.text(x, y, op, op.Fill)
		}
	}
	return nil
}

func (r *rasterizer) pxPoints(pts [][2]float64) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		x, y := r.px(p[0], p[1])
		out[i] = [2]float64{x, y}
	}
	return out
}

func (r *rasterizer) set(x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(r.img.Rect) {
		r.img.SetRGBA(x, y, col)
	}
}

func (r *rasterizer) fillRect(x, y, w, h float64, col color.RGBA) {
	rect := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	draw.Draw(r.img, rect.Intersect(r.img.Rect), image.NewUniform(col), image.Point{}, draw.Src)
}

func (r *rasterizer) fillRoundRect(x, y, w, h, rx float64, col color.RGBA) {
	rx = math.Min(rx, math.Min(w, h)/2)
	r.fillRect(x+rx, y, w-2*rx, h, col)
	r.fillRect(x, y+rx, rx, h-2*rx, col)
	r.fillRect(x+w-rx, y+rx, rx, h-2*rx, col)
	r.fillCircle(x+rx, y+rx, rx, col)
	r.fillCircle(x+w-rx, y+rx, rx, col)
	r.fillCircle(x+rx, y+h-rx, rx, col)
	r.fillCircle(x+w-rx, y+h-rx, rx, col)
}

func (r *rasterizer) strokeRect(x, y, w, h, sw float64, col color.RGBA) {
	r.line(x, y, x+w, y, sw, col)
	r.line(x+w, y, x+w, y+h, sw, col)
	r.line(x+w, y+h, x, y+h, sw, col)
	r.line(x, y+h, x, y, sw, col)
}

func (r *rasterizer) fillCircle(cx, cy, rad float64, col color.RGBA) {
	for dy := -rad; dy <= rad; dy++ {
		span := math.Sqrt(rad*rad - dy*dy)
		y := int(math.Round(cy + dy))
		for x := int(math.Round(cx - span)); x <= int(math.Round(cx+span)); x++ {
			r.set(x, y, col)
		}
	}
}

func (r *rasterizer) strokeCircle(cx, cy, rad, sw float64, col color.RGBA) {
	half := math.Max(sw/2, 0.5)
	lo, hi := rad-half, rad+half
	for y := int(math.Floor(cy - hi)); y <= int(math.Ceil(cy+hi)); y++ {
		for x := int(math.Floor(cx - hi)); x <= int(math.Ceil(cx+hi)); x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d >= lo && d <= hi {
				r.set(x, y, col)
			}
		}
	}
}

// line stamps dots along the segment, giving square-capped strokes that
// read the same as the SVG at these widths.
func (r *rasterizer) line(x1, y1, x2, y2, sw float64, col color.RGBA) {
	length := math.Hypot(x2-x1, y2-y1)
	steps := int(length*2) + 1
	rad := math.Max(sw/2, 0.5)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		r.dot(x1+(x2-x1)*t, y1+(y2-y1)*t, rad, col)
	}
}

func (r *rasterizer) dot(cx, cy, rad float64, col color.RGBA) {
	if rad <= 0.5 {
		r.set(int(math.Round(cx)), int(math.Round(cy)), col)
		return
	}
	for y := int(math.Floor(cy - rad)); y <= int(math.Ceil(cy+rad)); y++ {
		for x := int(math.Floor(cx - rad)); x <= int(math.Ceil(cx+rad)); x++ {
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= rad {
				r.set(x, y, col)
			}
		}
	}
}

// fillPolygon scan-fills with the even-odd rule.
func (r *rasterizer) fillPolygon(pts [][2]float64, col color.RGBA) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		sy := float64(y) + 0.5
		var xs []float64
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (a[1] <= sy && b[1] > sy) || (b[1] <= sy && a[1] > sy) {
				t := (sy - a[1]) / (b[1] - a[1])
				xs = append(xs, a[0]+t*(b[0]-a[0]))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Round(xs[i])); x <= int(math.Round(xs[i+1])); x++ {
				r.set(x, y, col)
			}
		}
	}
}

func (r *rasterizer) arrowhead(from, to [2]float64, col color.RGBA) {
	dx, dy := to[0]-from[0], to[1]-from[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	tipLen := arrowLength * r.scale
	halfW := arrowHalfWidth * r.scale
	bx, by := to[0]-tipLen*ux, to[1]-tipLen*uy
	r.fillPolygon([][2]float64{
		to,
		{bx - halfW*uy, by + halfW*ux},
		{bx + halfW*uy, by - halfW*ux},
	}, col)
}

// --- Text ---

var (
	exportFontOnce sync.Once
	exportFont     *opentype.Font
	exportFontErr  error

	// opentype faces are not safe for concurrent use.
	exportFaceMu sync.Mutex
	exportFaces  = map[float64]font.Face{}
)

func exportFace(size float64) (font.Face, error) {
	exportFontOnce.Do(func() {
		exportFont, exportFontErr = opentype.Parse(goregular.TTF)
	})
	if exportFontErr != nil {
		return nil, exportFontErr
	}
	if f, ok := exportFaces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(exportFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	exportFaces[size] = f
	return f, nil
}

func (r *rasterizer) text(x, y float64, op drawOp, col color.RGBA) error {
	exportFaceMu.Lock()
	defer exportFaceMu.Unlock()

	face, err := exportFace(op.FontSize * r.scale)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	dx := fixed.Int26_6(math.Round(x * 64))
	dy := fixed.Int26_6(math.Round(y * 64))
	if op.Anchor == "middle" {
		dx -= d.MeasureString(op.Text) / 2
	}
	if op.Baseline == "central" {
		m := face.Metrics()
		dy += (m.Ascent - m.Descent) / 2
	}
	d.Dot = fixed.Point26_6{X: dx, Y: dy}
	d.DrawString(op.Text)
	return nil
}
