package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/face-sorter/internal/facematch"
)

// ErrInvalidTrainingStructure wraps every problem found in the enrollment input folder.
var ErrInvalidTrainingStructure = errors.New("invalid training structure")

// TrainingPerson is one enrollment folder: a person name and its reference images.
type TrainingPerson struct {
	Name   string
	Images []string
}

// ValidateTrainingStructure checks that dir only contains one folder per
// person, each with at least one image and no nested folders, and returns the
// persons sorted by name.
func ValidateTrainingStructure(dir string) ([]TrainingPerson, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read training folder %s: %w", dir, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: there are no files in the training path, please create at least one folder with at least one image in it", ErrInvalidTrainingStructure)
	}

	seen := make(map[string]string)
	var persons []TrainingPerson
	for _, entry := range entries {
		personDir := filepath.Join(dir, entry.Name())
		if !entry.IsDir() {
			return nil, fmt.Errorf("%w: in the training path there should only be folders, %s is not a folder", ErrInvalidTrainingStructure, personDir)
		}

		if IsReservedName(entry.Name()) {
			return nil, fmt.Errorf("%w: %q is the name of an output folder, please rename the person folder", ErrInvalidTrainingStructure, entry.Name())
		}

		key := facematch.NormalizePersonName(entry.Name())
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: folders %q and %q name the same person", ErrInvalidTrainingStructure, other, entry.Name())
		}
		seen[key] = entry.Name()

		images, err := os.ReadDir(personDir)
		if err != nil {
			return nil, fmt.Errorf("could not read person folder %s: %w", personDir, err)
		}
		if len(images) == 0 {
			return nil, fmt.Errorf("%w: folder %s does not contain an image, each folder of a person needs at least one image", ErrInvalidTrainingStructure, personDir)
		}

		person := TrainingPerson{Name: entry.Name()}
		for _, img := range images {
			imgPath := filepath.Join(personDir, img.Name())
			if img.IsDir() {
				return nil, fmt.Errorf("%w: in a training folder there should only be images of that person, %s is a folder", ErrInvalidTrainingStructure, imgPath)
			}
			person.Images = append(person.Images, imgPath)
		}
		persons = append(persons, person)
	}

	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })
	return persons, nil
}
