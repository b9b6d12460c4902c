package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

// ScanInput lists every entry below dir recursively, directories included, in
// lexical order. Hidden files and folders (leading dot) are skipped.
func ScanInput(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan %s: %w", dir, err)
	}
	return paths, nil
}

// IsVideo reports whether the path has one of the given video extensions.
// The comparison is case-sensitive; list every casing that should match.
func IsVideo(path string, extensions []string) bool {
	return slices.Contains(extensions, filepath.Ext(path))
}

// FilterInput returns the paths that are regular candidate photos. Entries
// with a video extension are deleted from disk, directories are skipped and
// left alone. Order of the remaining paths is preserved.
func FilterInput(paths []string, videoExtensions []string) ([]string, error) {
	if videoExtensions == nil {
		videoExtensions = constants.VideoExtensions
	}

	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("could not stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if IsVideo(path, videoExtensions) {
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("could not remove video %s: %w", path, err)
			}
			continue
		}
		kept = append(kept, path)
	}
	return kept, nil
}
