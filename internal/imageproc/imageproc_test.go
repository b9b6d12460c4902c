package imageproc

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-sorter/internal/faceapi"
)

// halfImage returns a w x h image with a red left half and a blue right half.
func halfImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if x < w/2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

// exifOrientationSegment builds a big-endian APP1 Exif segment with a single Orientation entry.
func exifOrientationSegment(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(42))
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))      // entry count
	binary.Write(&tiff, binary.BigEndian, uint16(0x0112)) // Orientation
	binary.Write(&tiff, binary.BigEndian, uint16(3))      // SHORT
	binary.Write(&tiff, binary.BigEndian, uint32(1))
	binary.Write(&tiff, binary.BigEndian, orientation)
	binary.Write(&tiff, binary.BigEndian, uint16(0))
	binary.Write(&tiff, binary.BigEndian, uint32(0)) // next IFD

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	return append(seg, payload...)
}

func writeJPEGWithOrientation(t *testing.T, path string, img image.Image, orientation uint16) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	raw := buf.Bytes()

	// SOI, then our APP1, then the rest of the encoded stream
	out := append([]byte{}, raw[:2]...)
	out = append(out, exifOrientationSegment(orientation)...)
	out = append(out, raw[2:]...)
	if err := os.WriteFile(path, out, 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func decode(t *testing.T, path string) image.Image {
	t.Helper()
	d, err := decodeFile(path)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return d.img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 80 && b>>8 < 80
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func isBlue(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return b>>8 > 200 && r>>8 < 80 && g>>8 < 80
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"within bounds", 800, 600, 2000, 800, 600},
		{"landscape", 4000, 3000, 2000, 2000, 1500},
		{"portrait", 3000, 4000, 2000, 1500, 2000},
		{"square", 5000, 5000, 2000, 2000, 2000},
		{"no limit", 5000, 5000, 0, 5000, 5000},
		{"thin strip", 10000, 2, 2000, 2000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitSize(tt.width, tt.height, tt.maxSize)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitSize(%d, %d, %d) = %dx%d, want %dx%d", tt.width, tt.height, tt.maxSize, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRotationFor(t *testing.T) {
	tests := map[int]int{1: 0, 2: 0, 3: 180, 4: 0, 5: 0, 6: 270, 7: 0, 8: 90, 0: 0}
	for orientation, want := range tests {
		if got := rotationFor(orientation); got != want {
			t.Errorf("rotationFor(%d) = %d, want %d", orientation, got, want)
		}
	}
}

func TestNormalize_IdempotentForSmallUprightImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	dst := filepath.Join(dir, "small_resized.png")
	writePNG(t, src, halfImage(40, 20))

	tr, err := Normalize(src, dst, 2000)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if !tr.Identity() {
		t.Errorf("expected identity transform, got %+v", tr)
	}
	out := decode(t, dst)
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 20 {
		t.Errorf("expected 40x20, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if !isRed(out.At(2, 10)) || !isBlue(out.At(37, 10)) {
		t.Error("expected pixels to be unchanged")
	}

	// Normalizing the normalized copy again changes nothing
	again := filepath.Join(dir, "again.png")
	tr2, err := Normalize(dst, again, 2000)
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}
	if tr2.Width != 40 || tr2.Height != 20 || tr2.Rotation != 0 {
		t.Errorf("unexpected second transform %+v", tr2)
	}
}

func TestNormalize_Downscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	dst := filepath.Join(dir, "big_resized.jpg")
	writePNG(t, src, halfImage(400, 200))

	tr, err := Normalize(src, dst, 100)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if tr.Width != 100 || tr.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", tr.Width, tr.Height)
	}
	out := decode(t, dst)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Errorf("expected written image 100x50, got %v", out.Bounds())
	}

	// Source is untouched
	if src := decode(t, src); src.Bounds().Dx() != 400 {
		t.Error("expected source to keep its size")
	}
}

func TestNormalize_RotatesByOrientation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "phone.jpg")
	dst := filepath.Join(dir, "phone_resized.jpg")
	writeJPEGWithOrientation(t, src, halfImage(40, 20), 6)

	tr, err := Normalize(src, dst, 2000)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if tr.Orientation != 6 || tr.Rotation != 270 {
		t.Fatalf("expected orientation 6 rotated by 270, got %+v", tr)
	}

	out := decode(t, dst)
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 40 {
		t.Fatalf("expected 20x40 after rotation, got %v", out.Bounds())
	}
	// Rotating clockwise moves the red left half to the top
	if !isRed(out.At(10, 3)) {
		t.Errorf("expected red at the top, got %v", out.At(10, 3))
	}
	if !isBlue(out.At(10, 36)) {
		t.Errorf("expected blue at the bottom, got %v", out.At(10, 36))
	}
}

func TestReadOrientation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		orientation uint16 // 0 writes no EXIF segment
		want        int
	}{
		{"rotated 180", 3, 3},
		{"rotated clockwise", 6, 6},
		{"rotated counter-clockwise", 8, 8},
		{"upright", 1, 1},
		{"no EXIF", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "o.jpg")
			if tt.orientation == 0 {
				var buf bytes.Buffer
				if err := jpeg.Encode(&buf, halfImage(8, 4), nil); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
					t.Fatal(err)
				}
			} else {
				writeJPEGWithOrientation(t, path, halfImage(8, 4), tt.orientation)
			}

			d, err := decodeFile(path)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if d.format != "jpeg" {
				t.Fatalf("expected jpeg format, got %q", d.format)
			}
			got, err := readOrientation(d.data, d.format)
			if err != nil {
				t.Fatalf("readOrientation failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected orientation %d, got %d", tt.want, got)
			}
		})
	}
}

func TestReadOrientation_FormatWithoutEXIF(t *testing.T) {
	got, err := readOrientation([]byte("GIF89a"), "gif")
	if err != nil || got != 1 {
		t.Errorf("expected 1 without error, got %d, %v", got, err)
	}
}

func TestNormalize_RotationsMatchOrientation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		orientation  uint16
		rotation     int
		w, h         int
		redX, redY   int
		blueX, blueY int
	}{
		{3, 180, 40, 20, 36, 10, 3, 10}, // red left half ends up on the right
		{6, 270, 20, 40, 10, 3, 10, 36}, // clockwise: red on top
		{8, 90, 20, 40, 10, 36, 10, 3},  // counter-clockwise: red at the bottom
	}

	for _, tt := range tests {
		src := filepath.Join(dir, "src.jpg")
		dst := filepath.Join(dir, "dst.png")
		writeJPEGWithOrientation(t, src, halfImage(40, 20), tt.orientation)

		tr, err := Normalize(src, dst, 2000)
		if err != nil {
			t.Fatalf("orientation %d: Normalize failed: %v", tt.orientation, err)
		}
		if tr.Rotation != tt.rotation || tr.MetadataErr != nil {
			t.Errorf("orientation %d: unexpected transform %+v", tt.orientation, tr)
			continue
		}
		if tr.SourceWidth != 40 || tr.SourceHeight != 20 || tr.Width != tt.w || tr.Height != tt.h {
			t.Errorf("orientation %d: unexpected dimensions %+v", tt.orientation, tr)
		}

		out := decode(t, dst)
		if !isRed(out.At(tt.redX, tt.redY)) {
			t.Errorf("orientation %d: expected red at (%d,%d), got %v", tt.orientation, tt.redX, tt.redY, out.At(tt.redX, tt.redY))
		}
		if !isBlue(out.At(tt.blueX, tt.blueY)) {
			t.Errorf("orientation %d: expected blue at (%d,%d), got %v", tt.orientation, tt.blueX, tt.blueY, out.At(tt.blueX, tt.blueY))
		}
	}
}

func TestRotate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	marker := color.RGBA{G: 255, A: 255}
	img.Set(2, 0, marker) // top-right corner

	tests := []struct {
		degrees int
		w, h    int
		x, y    int
	}{
		{90, 2, 3, 0, 0},  // counter-clockwise: top-right goes to top-left
		{180, 3, 2, 0, 1}, // bottom-left
		{270, 2, 3, 1, 2}, // clockwise: bottom-right
	}

	for _, tt := range tests {
		out := rotate(img, tt.degrees)
		if out.Bounds().Dx() != tt.w || out.Bounds().Dy() != tt.h {
			t.Errorf("rotate %d: expected %dx%d, got %v", tt.degrees, tt.w, tt.h, out.Bounds())
			continue
		}
		if !sameColor(out.At(tt.x, tt.y), marker) {
			t.Errorf("rotate %d: expected marker at (%d,%d)", tt.degrees, tt.x, tt.y)
		}
	}
}

func TestTransformToSource(t *testing.T) {
	box := faceapi.BoundingBox{Left: 10, Top: 5, Width: 20, Height: 10}

	tests := []struct {
		name string
		tr   Transform
		want image.Rectangle
	}{
		{
			name: "identity",
			tr:   Transform{SourceWidth: 100, SourceHeight: 50, Width: 100, Height: 50},
			want: image.Rect(10, 5, 30, 15),
		},
		{
			name: "downscaled by half",
			tr:   Transform{SourceWidth: 200, SourceHeight: 100, Width: 100, Height: 50},
			want: image.Rect(20, 10, 60, 30),
		},
		{
			name: "rotated 180",
			tr:   Transform{SourceWidth: 100, SourceHeight: 50, Rotation: 180, Width: 100, Height: 50},
			want: image.Rect(70, 35, 90, 45),
		},
		{
			name: "rotated 270 (orientation 6)",
			tr:   Transform{SourceWidth: 100, SourceHeight: 50, Rotation: 270, Width: 50, Height: 100},
			want: image.Rect(5, 20, 15, 40),
		},
		{
			name: "rotated 90 (orientation 8)",
			tr:   Transform{SourceWidth: 100, SourceHeight: 50, Rotation: 90, Width: 50, Height: 100},
			want: image.Rect(85, 10, 95, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.ToSource(box); got != tt.want {
				t.Errorf("ToSource = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "group.png")
	dst := filepath.Join(dir, "annotated.png")

	white := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	writePNG(t, src, white)

	boxes := []image.Rectangle{image.Rect(10, 10, 30, 30), image.Rect(60, 60, 90, 80)}
	if err := Annotate(src, dst, boxes); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	out := decode(t, dst)
	for _, p := range []image.Point{{10, 10}, {29, 29}, {20, 10}, {60, 70}, {89, 79}} {
		if !isRed(out.At(p.X, p.Y)) {
			t.Errorf("expected outline at %v, got %v", p, out.At(p.X, p.Y))
		}
	}
	// Interior and outside stay white
	for _, p := range []image.Point{{20, 20}, {9, 9}, {75, 70}, {50, 50}} {
		r, g, b, _ := out.At(p.X, p.Y).RGBA()
		if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
			t.Errorf("expected white at %v, got %v", p, out.At(p.X, p.Y))
		}
	}
}
