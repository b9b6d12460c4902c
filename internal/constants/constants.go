// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Image processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) of a normalized image
	MaxImageSize = 2000

	// JPEGQuality is the quality used when re-encoding JPEG images
	JPEGQuality = 90
)

// Face service constants
const (
	// MaxIdentifyFaces is the maximum number of face IDs accepted by a single identify call
	MaxIdentifyFaces = 10

	// MaxCandidatesReturned is the number of ranked candidates requested per face
	MaxCandidatesReturned = 1

	// DefaultRequestsPerMinute matches the free-tier transaction quota of the face service
	DefaultRequestsPerMinute = 20

	// DefaultRecognitionModel is the model used for detection and person groups
	DefaultRecognitionModel = "recognition_04"

	// DefaultDetectionModel is the model used for face detection
	DefaultDetectionModel = "detection_03"
)

// Training constants
const (
	// DefaultPollInterval is the delay between two training status checks
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxPollAttempts bounds how many times the training status is polled
	DefaultMaxPollAttempts = 150
)

// Workspace folder names, relative to the installation root
const (
	FacesDir             = "faces"
	UnclassifiedDir      = "unclassified"
	UnclassifiedResized  = "unclassified_resized"
	OutputDir            = "output"
	InputDir             = "input"
	InputResizedDir      = "input_resized"
	NoFaceFoundDir       = "no face found"
	APIErrorDir          = "api_error"
	SomeNotRecognizedDir = "some faces not recognized"
)

// VideoExtensions lists the file extensions removed from the input queue.
var VideoExtensions = []string{".mp4", ".MP4", ".mov", ".MOV"}
