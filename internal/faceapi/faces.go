package faceapi

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

// DetectFaces uploads one image and returns the faces found in it.
// The call is never retried.
func (c *Client) DetectFaces(ctx context.Context, imagePath string) ([]DetectedFace, error) {
	data, err := os.ReadFile(imagePath) //nolint:gosec // path comes from the workspace scratch folder
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}

	query := url.Values{}
	query.Set("returnFaceId", "true")
	query.Set("returnFaceLandmarks", "false")
	query.Set("recognitionModel", constants.DefaultRecognitionModel)
	query.Set("detectionModel", constants.DefaultDetectionModel)

	result, err := doPostBinary[[]DetectedFace](ctx, c, "detect?"+query.Encode(), data)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return *result, nil
}

// identifyRequest is the body of the identify endpoint.
type identifyRequest struct {
	FaceIDs                    []string `json:"faceIds"`
	PersonGroupID              string   `json:"personGroupId"`
	MaxNumOfCandidatesReturned int      `json:"maxNumOfCandidatesReturned"`
}

// IdentifyFaces matches transient face IDs against a trained person group.
// Candidates of every result are sorted by descending confidence.
func (c *Client) IdentifyFaces(ctx context.Context, faceIDs []string, personGroupID string) ([]IdentificationResult, error) {
	if len(faceIDs) == 0 {
		return nil, ErrNoFaces
	}
	if len(faceIDs) > constants.MaxIdentifyFaces {
		return nil, fmt.Errorf("%w: %d faces, at most %d allowed", ErrTooManyFaces, len(faceIDs), constants.MaxIdentifyFaces)
	}

	result, err := doPostJSON[[]IdentificationResult](ctx, c, "identify", identifyRequest{
		FaceIDs:                    faceIDs,
		PersonGroupID:              personGroupID,
		MaxNumOfCandidatesReturned: constants.MaxCandidatesReturned,
	})
	if err != nil {
		return nil, fmt.Errorf("identify faces: %w", err)
	}

	sortCandidates(*result)
	return *result, nil
}
