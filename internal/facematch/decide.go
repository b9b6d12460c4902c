package facematch

import "github.com/kozaktomas/face-sorter/internal/faceapi"

// Decide picks the buckets for one photo.
//
// No detected faces routes to BucketNoFace and a failed identification
// (identified == false) to BucketAPIError; both exclude every other bucket.
// Otherwise every face whose top candidate exists is a match, and any face
// without candidates, or missing from results, adds BucketUnrecognized.
func Decide(faces []faceapi.DetectedFace, results []faceapi.IdentificationResult, identified bool) Plan {
	if len(faces) == 0 {
		return Plan{Buckets: []Bucket{BucketNoFace}}
	}
	if !identified {
		return Plan{Buckets: []Bucket{BucketAPIError}}
	}

	byFace := make(map[string]faceapi.IdentificationResult, len(results))
	for _, r := range results {
		byFace[r.FaceID] = r
	}

	var plan Plan
	seen := make(map[string]bool)
	for _, face := range faces {
		top, ok := byFace[face.FaceID].Top()
		if !ok {
			plan.Unrecognized = append(plan.Unrecognized, face)
			continue
		}
		plan.Matches = append(plan.Matches, Match{FaceID: face.FaceID, PersonID: top.PersonID, Confidence: top.Confidence})
		if !seen[top.PersonID] {
			seen[top.PersonID] = true
			plan.PersonIDs = append(plan.PersonIDs, top.PersonID)
		}
	}

	if len(plan.Matches) > 0 {
		plan.Buckets = append(plan.Buckets, BucketRecognized)
	}
	if len(plan.Unrecognized) > 0 {
		plan.Buckets = append(plan.Buckets, BucketUnrecognized)
	}
	return plan
}
