// Package workspace manages the fixed folder layout of face-sorter: the input
// queue, scratch folders for normalized images and the output buckets.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

// Layout resolves the well-known folders below an installation root.
type Layout struct {
	Root string
}

func New(root string) *Layout {
	return &Layout{Root: root}
}

func (l *Layout) faces(parts ...string) string {
	return filepath.Join(append([]string{l.Root, constants.FacesDir}, parts...)...)
}

func (l *Layout) Unclassified() string        { return l.faces(constants.UnclassifiedDir) }
func (l *Layout) UnclassifiedResized() string { return l.faces(constants.UnclassifiedResized) }
func (l *Layout) Output() string              { return l.faces(constants.OutputDir) }
func (l *Layout) Input() string               { return l.faces(constants.InputDir) }
func (l *Layout) InputResized() string        { return l.faces(constants.InputResizedDir) }

func (l *Layout) NoFaceFound() string {
	return l.faces(constants.OutputDir, constants.NoFaceFoundDir)
}

func (l *Layout) APIError() string {
	return l.faces(constants.OutputDir, constants.APIErrorDir)
}

func (l *Layout) SomeNotRecognized() string {
	return l.faces(constants.OutputDir, constants.SomeNotRecognizedDir)
}

// Person returns the output folder for a recognized person.
// See SafeFolderName for how the name becomes a folder.
func (l *Layout) Person(name string) string {
	return filepath.Join(l.Output(), SafeFolderName(name))
}

// bucketDirs are the output folders that are not person folders.
var bucketDirs = []string{constants.NoFaceFoundDir, constants.APIErrorDir, constants.SomeNotRecognizedDir}

// IsReservedName reports whether a person name collides with an output
// bucket folder. Case is ignored, output folders may live on a
// case-insensitive filesystem.
func IsReservedName(name string) bool {
	name = strings.TrimSpace(name)
	for _, dir := range bucketDirs {
		if strings.EqualFold(name, dir) {
			return true
		}
	}
	return false
}

// SafeFolderName makes a person name usable as a single path element.
// Names of bucket folders get a "_" prefix so a person never shares one.
func SafeFolderName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	if IsReservedName(name) {
		return "_" + name
	}
	return name
}

// EnsureDirs creates every well-known folder that does not exist yet.
func (l *Layout) EnsureDirs() error {
	dirs := []string{
		l.faces(),
		l.Input(),
		l.Output(),
		l.Unclassified(),
		l.UnclassifiedResized(),
		l.InputResized(),
		l.NoFaceFound(),
		l.APIError(),
		l.SomeNotRecognized(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("could not create folder %s: %w", dir, err)
		}
	}
	return nil
}
