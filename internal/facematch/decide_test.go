package facematch

import (
	"slices"
	"testing"

	"github.com/kozaktomas/face-sorter/internal/faceapi"
)

func face(id string) faceapi.DetectedFace {
	return faceapi.DetectedFace{FaceID: id, Box: faceapi.BoundingBox{Left: 1, Top: 2, Width: 3, Height: 4}}
}

func result(faceID string, candidates ...faceapi.Candidate) faceapi.IdentificationResult {
	return faceapi.IdentificationResult{FaceID: faceID, Candidates: candidates}
}

func TestDecide(t *testing.T) {
	alice := faceapi.Candidate{PersonID: "p-alice", Confidence: 0.9}
	bob := faceapi.Candidate{PersonID: "p-bob", Confidence: 0.8}

	tests := []struct {
		name             string
		faces            []faceapi.DetectedFace
		results          []faceapi.IdentificationResult
		identified       bool
		wantBuckets      []Bucket
		wantPersons      []string
		wantUnrecognized int
	}{
		{
			name:        "no face",
			identified:  true,
			wantBuckets: []Bucket{BucketNoFace},
		},
		{
			name:        "no face wins over failed identification",
			identified:  false,
			wantBuckets: []Bucket{BucketNoFace},
		},
		{
			name:        "identification failed",
			faces:       []faceapi.DetectedFace{face("f1")},
			identified:  false,
			wantBuckets: []Bucket{BucketAPIError},
		},
		{
			name:        "one recognized",
			faces:       []faceapi.DetectedFace{face("f1")},
			results:     []faceapi.IdentificationResult{result("f1", alice)},
			identified:  true,
			wantBuckets: []Bucket{BucketRecognized},
			wantPersons: []string{"p-alice"},
		},
		{
			name:        "two persons",
			faces:       []faceapi.DetectedFace{face("f1"), face("f2")},
			results:     []faceapi.IdentificationResult{result("f1", alice), result("f2", bob)},
			identified:  true,
			wantBuckets: []Bucket{BucketRecognized},
			wantPersons: []string{"p-alice", "p-bob"},
		},
		{
			name:        "same person twice is one destination",
			faces:       []faceapi.DetectedFace{face("f1"), face("f2")},
			results:     []faceapi.IdentificationResult{result("f1", alice), result("f2", alice)},
			identified:  true,
			wantBuckets: []Bucket{BucketRecognized},
			wantPersons: []string{"p-alice"},
		},
		{
			name:             "only unrecognized",
			faces:            []faceapi.DetectedFace{face("f1")},
			results:          []faceapi.IdentificationResult{result("f1")},
			identified:       true,
			wantBuckets:      []Bucket{BucketUnrecognized},
			wantUnrecognized: 1,
		},
		{
			name:             "mixed",
			faces:            []faceapi.DetectedFace{face("f1"), face("f2"), face("f3")},
			results:          []faceapi.IdentificationResult{result("f1"), result("f2", bob, alice)},
			identified:       true,
			wantBuckets:      []Bucket{BucketRecognized, BucketUnrecognized},
			wantPersons:      []string{"p-bob"},
			wantUnrecognized: 2, // f1 has no candidates, f3 is missing from results
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Decide(tt.faces, tt.results, tt.identified)

			if !slices.Equal(plan.Buckets, tt.wantBuckets) {
				t.Errorf("buckets = %v, want %v", plan.Buckets, tt.wantBuckets)
			}
			if !slices.Equal(plan.PersonIDs, tt.wantPersons) {
				t.Errorf("persons = %v, want %v", plan.PersonIDs, tt.wantPersons)
			}
			if len(plan.Unrecognized) != tt.wantUnrecognized {
				t.Errorf("unrecognized = %d, want %d", len(plan.Unrecognized), tt.wantUnrecognized)
			}
		})
	}
}

func TestDecide_UsesTopCandidate(t *testing.T) {
	plan := Decide(
		[]faceapi.DetectedFace{face("f1")},
		[]faceapi.IdentificationResult{result("f1",
			faceapi.Candidate{PersonID: "first", Confidence: 0.7},
			faceapi.Candidate{PersonID: "second", Confidence: 0.6},
		)},
		true,
	)

	if len(plan.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(plan.Matches))
	}
	if plan.Matches[0].PersonID != "first" || plan.Matches[0].Confidence != 0.7 {
		t.Errorf("unexpected match %+v", plan.Matches[0])
	}
	if !plan.Has(BucketRecognized) || plan.Has(BucketNoFace) {
		t.Errorf("unexpected buckets %v", plan.Buckets)
	}
}
