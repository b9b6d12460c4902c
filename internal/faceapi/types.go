package faceapi

import (
	"image"
	"sort"
)

// BoundingBox is a face rectangle in pixels of the image sent to detection.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to corner coordinates.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height)
}

// DetectedFace is one face found by a detect call. FaceID is transient: it is
// only valid for identify calls made shortly after detection.
type DetectedFace struct {
	FaceID string      `json:"faceId"`
	Box    BoundingBox `json:"faceRectangle"`
}

// Candidate is a person proposed for a face, with a confidence in [0,1].
type Candidate struct {
	PersonID   string  `json:"personId"`
	Confidence float64 `json:"confidence"`
}

// IdentificationResult holds the ranked candidates for one face.
// An empty candidate list means no person matched.
type IdentificationResult struct {
	FaceID     string      `json:"faceId"`
	Candidates []Candidate `json:"candidates"`
}

// Top returns the most likely candidate.
func (r IdentificationResult) Top() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// sortCandidates orders candidates by descending confidence.
func sortCandidates(results []IdentificationResult) {
	for i := range results {
		sort.SliceStable(results[i].Candidates, func(a, b int) bool {
			return results[i].Candidates[a].Confidence > results[i].Candidates[b].Confidence
		})
	}
}

// Person is an enrolled person of a person group.
type Person struct {
	PersonID         string   `json:"personId"`
	Name             string   `json:"name"`
	UserData         string   `json:"userData,omitempty"`
	PersistedFaceIDs []string `json:"persistedFaceIds,omitempty"`
}

// TrainingState is the server-side training status of a person group.
type TrainingState string

const (
	TrainingNotStarted TrainingState = "notstarted"
	TrainingRunning    TrainingState = "running"
	TrainingSucceeded  TrainingState = "succeeded"
	TrainingFailed     TrainingState = "failed"
)

// TrainingStatus is the response of the training status endpoint.
type TrainingStatus struct {
	Status             TrainingState `json:"status"`
	CreatedDateTime    string        `json:"createdDateTime,omitempty"`
	LastActionDateTime string        `json:"lastActionDateTime,omitempty"`
	Message            string        `json:"message,omitempty"`
}
