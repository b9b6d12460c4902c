package faceapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnauthorized is matched by API errors caused by an invalid key or endpoint.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoFaces is returned when identify is called without face IDs.
	ErrNoFaces = errors.New("no face IDs to identify")

	// ErrTooManyFaces is returned when more face IDs are passed than one identify call accepts.
	ErrTooManyFaces = errors.New("too many face IDs to identify")
)

// APIError is a non-successful response of the Face API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// decodeAPIError builds an APIError from an error response body.
// The body is not required to be JSON; we're already in an error path.
func decodeAPIError(statusCode int, r io.Reader) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	body, err := io.ReadAll(r)
	if err != nil {
		apiErr.Message = "(could not read error body)"
		return apiErr
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}
	apiErr.Message = string(body)
	return apiErr
}

// IsNotFoundError returns true if the error is a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsConflictError returns true if the error is a 409 Conflict response,
// e.g. when a person group with the same ID already exists.
func IsConflictError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}
