package imageproc

import (
	"image"
	"math"

	"github.com/kozaktomas/face-sorter/internal/faceapi"
)

// Transform records how a normalized image was derived from its source, so
// that face boxes reported on the normalized image can be mapped back onto
// the source pixels.
type Transform struct {
	SourceWidth  int // decoded source width, before rotation
	SourceHeight int
	Orientation  int // EXIF orientation tag (1 when absent)
	Rotation     int // degrees counter-clockwise applied: 0, 90, 180 or 270
	Width        int // normalized width
	Height       int // normalized height

	// MetadataErr is set when the EXIF data could not be parsed and the
	// image was treated as upright.
	MetadataErr error
}

// Identity reports whether the normalized image has the same pixel geometry as the source.
func (t Transform) Identity() bool {
	return t.Rotation == 0 && t.Width == t.SourceWidth && t.Height == t.SourceHeight
}

// ToSource maps a box in normalized pixels to source pixel coordinates.
// The result is clipped to the source bounds.
func (t Transform) ToSource(box faceapi.BoundingBox) image.Rectangle {
	if t.Width <= 0 || t.Height <= 0 {
		return box.Rect()
	}

	// Upright full-resolution dimensions.
	rotW, rotH := t.SourceWidth, t.SourceHeight
	if t.Rotation == 90 || t.Rotation == 270 {
		rotW, rotH = rotH, rotW
	}

	sx := float64(rotW) / float64(t.Width)
	sy := float64(rotH) / float64(t.Height)
	l := float64(box.Left) * sx
	top := float64(box.Top) * sy
	w := float64(box.Width) * sx
	h := float64(box.Height) * sy

	W, H := float64(t.SourceWidth), float64(t.SourceHeight)
	var x0, y0, bw, bh float64
	switch t.Rotation {
	case 90:
		// (x, y) -> (y, W - x)
		x0, y0, bw, bh = W-(top+h), l, h, w
	case 270:
		// (x, y) -> (H - y, x)
		x0, y0, bw, bh = top, H-(l+w), h, w
	case 180:
		x0, y0, bw, bh = W-(l+w), H-(top+h), w, h
	default:
		x0, y0, bw, bh = l, top, w, h
	}

	r := image.Rect(round(x0), round(y0), round(x0+bw), round(y0+bh))
	return r.Intersect(image.Rect(0, 0, t.SourceWidth, t.SourceHeight))
}

func round(f float64) int {
	return int(math.Round(f))
}
