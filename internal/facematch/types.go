// Package facematch decides what happens to a photo once its faces have been
// detected and identified. The decision is pure: no I/O, no errors.
package facematch

import (
	"slices"

	"github.com/kozaktomas/face-sorter/internal/faceapi"
)

// Bucket is the destination category of a photo
type Bucket string

const (
	BucketRecognized   Bucket = "recognized"                 // copy into the folder of each recognized person
	BucketUnrecognized Bucket = "unrecognized_faces_present" // annotated copy in "some faces not recognized"
	BucketNoFace       Bucket = "no_face_found"              // copy into "no face found"
	BucketAPIError     Bucket = "identification_api_error"   // copy into "api_error"
)

// Match is a face whose top candidate was accepted.
type Match struct {
	FaceID     string
	PersonID   string
	Confidence float64
}

// Plan is the outcome of one photo.
type Plan struct {
	Buckets      []Bucket
	Matches      []Match                // one per recognized face, in detection order
	PersonIDs    []string               // distinct person IDs of Matches, in first-seen order
	Unrecognized []faceapi.DetectedFace // faces without any candidate
}

// Has reports whether the plan routes the photo into bucket b.
func (p Plan) Has(b Bucket) bool {
	return slices.Contains(p.Buckets, b)
}
