package classifier

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-sorter/internal/facematch"
	"github.com/kozaktomas/face-sorter/internal/imageproc"
)

// route performs the file operations of a plan. Existing destination files
// are overwritten; any filesystem error is returned.
func (c *Classifier) route(src string, plan facematch.Plan, names map[string]string, tr imageproc.Transform) error {
	base := filepath.Base(src)

	if plan.Has(facematch.BucketNoFace) {
		return copyFile(src, filepath.Join(c.layout.NoFaceFound(), base))
	}
	if plan.Has(facematch.BucketAPIError) {
		return copyFile(src, filepath.Join(c.layout.APIError(), base))
	}

	if plan.Has(facematch.BucketRecognized) {
		// Two person IDs may share a display name, they share the folder too.
		done := make(map[string]bool)
		for _, id := range plan.PersonIDs {
			dir := c.layout.Person(names[id])
			if done[dir] {
				continue
			}
			done[dir] = true
			if err := copyFile(src, filepath.Join(dir, base)); err != nil {
				return err
			}
		}
	}

	if plan.Has(facematch.BucketUnrecognized) {
		boxes := make([]image.Rectangle, len(plan.Unrecognized))
		for i, face := range plan.Unrecognized {
			boxes[i] = tr.ToSource(face.Box)
		}
		if err := os.MkdirAll(c.layout.SomeNotRecognized(), 0750); err != nil {
			return fmt.Errorf("could not create folder: %w", err)
		}
		if err := imageproc.Annotate(src, filepath.Join(c.layout.SomeNotRecognized(), base), boxes); err != nil {
			return fmt.Errorf("could not save annotated copy: %w", err)
		}
	}

	return nil
}

// copyFile copies src to dst, creating the destination folder on demand.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("could not create folder: %w", err)
	}

	in, err := os.Open(src) //nolint:gosec // path comes from the workspace scan
	if err != nil {
		return fmt.Errorf("could not open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // destination is inside the output folder
	if err != nil {
		return fmt.Errorf("could not create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("could not copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", dst, err)
	}
	return nil
}
