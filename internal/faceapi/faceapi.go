// Package faceapi is a client for the Face API v1.0 REST contract: face
// detection, identification against a trained person group and the person
// group enrollment calls. Every request waits on a shared token-bucket
// limiter so a whole run stays inside the service's transaction quota.
package faceapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client represents a client for the Face API
type Client struct {
	Url        string
	parsedURL  *url.URL
	key        string
	httpClient *http.Client
	limiter    *rate.Limiter
	captureDir string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestsPerMinute limits the client to n requests per minute with a burst of one.
// Zero or a negative n disables limiting.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) { c.limiter = newLimiter(n) }
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// New creates a new Face API client for the given endpoint
// (e.g. https://westeurope.api.cognitive.microsoft.com) and subscription key.
func New(endpoint, key string, opts ...Option) (*Client, error) {
	apiURL := strings.TrimRight(endpoint, "/") + "/face/v1.0"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Face API endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid Face API endpoint %q: scheme and host are required", endpoint)
	}
	if key == "" {
		return nil, errors.New("face API key is required")
	}

	c := &Client{
		Url:        apiURL,
		parsedURL:  parsed,
		key:        key,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    newLimiter(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewWithCapture creates a new client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewWithCapture(endpoint, key, captureDir string, opts ...Option) (*Client, error) {
	c, err := New(endpoint, key, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.SetCaptureDir(captureDir); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveURL builds a full URL from the base API URL and the given path segments.
// If the last segment contains a query string (e.g. "detect?returnFaceId=true"), it is
// split so JoinPath only receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" || len(body) == 0 {
		return
	}

	endpoint, _, _ = strings.Cut(endpoint, "?")
	filename := strings.Trim(strings.ReplaceAll(endpoint, "/", "_"), "_")
	timestamp := time.Now().Format("20060102_150405.000000")
	path := filepath.Join(c.captureDir, fmt.Sprintf("%s_%s.json", filename, timestamp))

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}
