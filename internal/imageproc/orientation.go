package imageproc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bep/imagemeta"
)

// metaFormats maps image.Decode format names to the formats imagemeta can
// read EXIF from. GIF and BMP carry no EXIF.
var metaFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
}

// readOrientation returns the EXIF Orientation tag of the main image, or 1
// when the format has no EXIF support or the tag is missing. An error means
// the metadata could not be parsed; the orientation is then 1 as well.
func readOrientation(data []byte, format string) (int, error) {
	orientation := 1
	metaFormat, ok := metaFormats[format]
	if !ok || len(data) == 0 {
		return orientation, nil
	}

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: metaFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			// IFD1 holds the thumbnail, its orientation is not ours.
			return ti.Tag == "Orientation" && strings.HasPrefix(ti.Namespace, "IFD0")
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if v, ok := tagValueInt(ti.Value); ok {
				orientation = v
			}
			return nil
		},
	})
	if err != nil {
		return 1, fmt.Errorf("could not read EXIF orientation: %w", err)
	}

	return orientation, nil
}

// tagValueInt extracts an integer from a decoded tag value.
func tagValueInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint16:
		return int(val), true
	case uint32:
		return int(val), true
	case uint8:
		return int(val), true
	case uint64:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		return n, err == nil
	case []uint16:
		if len(val) > 0 {
			return int(val[0]), true
		}
	}
	return 0, false
}

// rotationFor maps an EXIF orientation to a counter-clockwise rotation in degrees.
// Only the rotations used by phone cameras are handled; mirrored orientations
// (2, 4, 5, 7) are left as they are.
func rotationFor(orientation int) int {
	switch orientation {
	case 3:
		return 180
	case 6:
		return 270
	case 8:
		return 90
	default:
		return 0
	}
}
