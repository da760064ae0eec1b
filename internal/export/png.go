// Package export rasterizes rendered diagram markup into downloadable
// PNG bytes and serializes one-shot validation reports.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"strings"
)

// DownloadName is the fixed filename every PNG export ships under.
const DownloadName = "mermaid-diagram.png"

const (
	// exportMargin is the whitespace added on each side of the diagram,
	// in scene units.
	exportMargin = 20

	// maxSurface bounds either raster axis.
	maxSurface = 1 << 14
)

// exportBackground fills the full surface before any scene op paints.
var exportBackground = color.RGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF}

// EncodeError describes a failed PNG export.
type EncodeError struct {
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export: %s: %v", e.Reason, e.Err)
	}
	return "export: " + e.Reason
}

func (e *EncodeError) Unwrap() error { return e.Err }

func encodeErr(reason string, err error) *EncodeError {
	return &EncodeError{Reason: reason, Err: err}
}

type pngConfig struct {
	scale   int
	tempDir string
}

// PNGOption adjusts one export.
type PNGOption func(*pngConfig)

// WithScale multiplies the raster resolution. Values below 1 are
// ignored.
func WithScale(s int) PNGOption {
	return func(c *pngConfig) {
		if s >= 1 {
			c.scale = s
		}
	}
}

// WithTempDir overrides where the staged markup file lives while the
// export runs.
func WithTempDir(dir string) PNGOption {
	return func(c *pngConfig) { c.tempDir = dir }
}

// EncodePNG rasterizes markup into PNG bytes. The markup is staged to a
// temp file that is removed on every path, decoded as the engine's SVG
// subset, painted onto an RGBA surface with exportMargin on each side,
// and PNG-encoded. All failures come back as *EncodeError.
func EncodePNG(markup string, opts ...PNGOption) ([]byte, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, encodeErr("nothing to export", nil)
	}
	cfg := pngConfig{scale: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.CreateTemp(cfg.tempDir, "mermpad-*.svg")
	if err != nil {
		return nil, encodeErr("stage markup", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(markup); err != nil {
		f.Close()
		return nil, encodeErr("stage markup", err)
	}
	if err := f.Close(); err != nil {
		return nil, encodeErr("stage markup", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, encodeErr("stage markup", err)
	}
	sc, decErr := decodeScene(src)
	src.Close()
	if decErr != nil {
		return nil, encodeErr("decode markup", decErr)
	}

	img, err := rasterize(sc, cfg.scale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, encodeErr("encode png", err)
	}
	return buf.Bytes(), nil
}

// rasterize paints the scene. The surface is the scene size plus
// exportMargin per side, all multiplied by scale.
func rasterize(sc *scene, scale int) (*image.RGBA, error) {
	w := (int(math.Ceil(sc.Width)) + 2*exportMargin) * scale
	h := (int(math.Ceil(sc.Height)) + 2*exportMargin) * scale
	if w <= 0 || h <= 0 || w > maxSurface || h > maxSurface {
		return nil, encodeErr(fmt.Sprintf("surface %dx%d out of range", w, h), nil)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(exportBackground), image.Point{}, draw.Src)

	r := &rasterizer{img: img, margin: exportMargin, scale: float64(scale)}
	for _, op := range sc.Ops {
		if err := r.paint(op); err != nil {
			return nil, encodeErr("draw text", err)
		}
	}
	return img, nil
}
