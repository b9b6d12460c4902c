package imageproc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Normalize writes an upright copy of sourcePath to targetPath whose width
// and height do not exceed maxSize. The source file is never modified.
// Images already upright and within bounds keep their dimensions.
func Normalize(sourcePath, targetPath string, maxSize int) (Transform, error) {
	src, err := decodeFile(sourcePath)
	if err != nil {
		return Transform{}, err
	}
	img := src.img

	orientation, metaErr := readOrientation(src.data, src.format)
	t := Transform{
		SourceWidth:  img.Bounds().Dx(),
		SourceHeight: img.Bounds().Dy(),
		Orientation:  orientation,
		Rotation:     rotationFor(orientation),
		MetadataErr:  metaErr,
	}

	// maxSize bounds both sides, so scaling before the rotation gives the
	// same result as rotating first and touches fewer pixels.
	out := fit(img, maxSize)
	out = rotate(out, t.Rotation)
	t.Width = out.Bounds().Dx()
	t.Height = out.Bounds().Dy()

	if err := encodeFile(targetPath, out); err != nil {
		return Transform{}, fmt.Errorf("could not write normalized image: %w", err)
	}
	return t, nil
}

// fitSize calculates dimensions that fit within maxSize keeping the aspect ratio.
// Images never get upscaled.
func fitSize(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}
	return max(newWidth, 1), max(newHeight, 1)
}

// fit resizes img so it fits within maxSize, or returns it unchanged.
func fit(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	newWidth, newHeight := fitSize(bounds.Dx(), bounds.Dy(), maxSize)
	if newWidth == bounds.Dx() && newHeight == bounds.Dy() {
		return img
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// rotate turns img counter-clockwise by 90, 180 or 270 degrees.
func rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
