// Package imageproc prepares photos for the face service and renders
// annotated copies: EXIF orientation, downsampling, encoding and outlines.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

// decodedImage is a decoded file together with its raw bytes and the format
// name reported by image.Decode, so metadata can be read without a second read.
type decodedImage struct {
	img    image.Image
	format string
	data   []byte
}

func decodeFile(path string) (*decodedImage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the workspace scan
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &decodedImage{img: img, format: format, data: data}, nil
}

// encodeFile writes img to path, choosing the encoder from the file extension.
// Unknown extensions are written as JPEG.
func encodeFile(path string, img image.Image) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality})
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("could not write image: %w", err)
	}
	return nil
}
