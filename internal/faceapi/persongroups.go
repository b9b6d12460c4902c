package faceapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

// GetPerson returns an enrolled person of a person group.
func (c *Client) GetPerson(ctx context.Context, personGroupID, personID string) (*Person, error) {
	person, err := doGetJSON[Person](ctx, c, "persongroups/"+url.PathEscape(personGroupID)+"/persons/"+url.PathEscape(personID))
	if err != nil {
		return nil, fmt.Errorf("get person %s: %w", personID, err)
	}
	return person, nil
}

// CreatePersonGroup creates an empty person group named after its ID.
// An existing group yields a 409 error, see IsConflictError.
func (c *Client) CreatePersonGroup(ctx context.Context, personGroupID string) error {
	body := map[string]string{
		"name":             personGroupID,
		"recognitionModel": constants.DefaultRecognitionModel,
	}
	if err := doRequestRaw(ctx, c, http.MethodPut, "persongroups/"+url.PathEscape(personGroupID), body, http.StatusOK); err != nil {
		return fmt.Errorf("create person group %s: %w", personGroupID, err)
	}
	return nil
}

// CreatePerson adds a person to a person group and returns the new person ID.
func (c *Client) CreatePerson(ctx context.Context, personGroupID, name string) (string, error) {
	result, err := doPostJSON[Person](ctx, c, "persongroups/"+url.PathEscape(personGroupID)+"/persons", map[string]string{"name": name})
	if err != nil {
		return "", fmt.Errorf("create person %s: %w", name, err)
	}
	return result.PersonID, nil
}

// AddPersonFace uploads a reference image for a person and returns the persisted face ID.
func (c *Client) AddPersonFace(ctx context.Context, personGroupID, personID, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath) //nolint:gosec // path comes from the workspace scratch folder
	if err != nil {
		return "", fmt.Errorf("could not read image: %w", err)
	}

	endpoint := fmt.Sprintf("persongroups/%s/persons/%s/persistedFaces?detectionModel=%s",
		url.PathEscape(personGroupID), url.PathEscape(personID), constants.DefaultDetectionModel)

	result, err := doPostBinary[struct {
		PersistedFaceID string `json:"persistedFaceId"`
	}](ctx, c, endpoint, data)
	if err != nil {
		return "", fmt.Errorf("add face for person %s: %w", personID, err)
	}
	return result.PersistedFaceID, nil
}

// TrainPersonGroup queues training of a person group. Training runs
// asynchronously, see GetTrainingStatus.
func (c *Client) TrainPersonGroup(ctx context.Context, personGroupID string) error {
	if err := doRequestRaw(ctx, c, http.MethodPost, "persongroups/"+url.PathEscape(personGroupID)+"/train", nil, http.StatusAccepted); err != nil {
		return fmt.Errorf("train person group %s: %w", personGroupID, err)
	}
	return nil
}

// GetTrainingStatus returns the current training status of a person group.
func (c *Client) GetTrainingStatus(ctx context.Context, personGroupID string) (*TrainingStatus, error) {
	status, err := doGetJSON[TrainingStatus](ctx, c, "persongroups/"+url.PathEscape(personGroupID)+"/training")
	if err != nil {
		return nil, fmt.Errorf("get training status %s: %w", personGroupID, err)
	}
	return status, nil
}
