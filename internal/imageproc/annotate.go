package imageproc

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// OutlineColor is the color of rectangles drawn around unrecognized faces.
var OutlineColor = color.RGBA{R: 255, A: 255}

// Annotate draws an unfilled rectangle per box on the source pixels and
// writes the result to targetPath. Boxes are in source pixel coordinates.
func Annotate(sourcePath, targetPath string, boxes []image.Rectangle) error {
	src, err := decodeFile(sourcePath)
	if err != nil {
		return err
	}
	img := src.img

	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	thickness := max(1, min(b.Dx(), b.Dy())/400)
	for _, box := range boxes {
		drawOutline(canvas, box, thickness, OutlineColor)
	}

	return encodeFile(targetPath, canvas)
}

// drawOutline strokes the inside edge of r with the given thickness.
func drawOutline(dst *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	t := min(thickness, r.Dx(), r.Dy())

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), // top
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), // left
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}
