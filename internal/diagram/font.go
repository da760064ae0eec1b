package diagram

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Label font sizes in SVG user units (px at 72 DPI).
const (
	nodeFontSize = 14
	edgeFontSize = 12
)

var (
	faceOnce sync.Once
	faceErr  error
	faceMu   sync.Mutex // opentype faces are not safe for concurrent use
	faceVal  font.Face
)

func labelFace() (font.Face, error) {
	faceOnce.Do(func() {
		ft, err := opentype.Parse(goregular.TTF)
		if err != nil {
			faceErr = fmt.Errorf("diagram: parse builtin font: %w", err)
			return
		}
		faceVal, faceErr = opentype.NewFace(ft, &opentype.FaceOptions{
			Size:    nodeFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return faceVal, faceErr
}

// measure returns the pixel advance of s at the node label size. The
// layout only needs advance widths, so a single face size suffices.
func measure(s string) (float64, error) {
	face, err := labelFace()
	if err != nil {
		return 0, err
	}
	faceMu.Lock()
	adv := font.MeasureString(face, s)
	faceMu.Unlock()
	return float64(adv) / 64, nil
}
