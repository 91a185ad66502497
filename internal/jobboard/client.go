package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

// Client talks to the external job-board API. The API is an opaque
// collaborator: writes are proxied to it when a base URL is configured, reads
// are served from the local mirror. An unconfigured client disables proxying
// (mirror-only mode).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFromEnv builds the client from JOBBOARD_API_URL / JOBBOARD_API_KEY.
func NewFromEnv() *Client {
	return &Client{
		baseURL: os.Getenv("JOBBOARD_API_URL"),
		apiKey:  os.Getenv("JOBBOARD_API_KEY"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether an upstream API is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type createJobResponse struct {
	ID string `json:"id"`
}

// CreateJob proxies a job creation upstream and returns the upstream id.
func (c *Client) CreateJob(ctx context.Context, j *jobmodels.Job) (string, error) {
	var resp createJobResponse
	if err := c.do(ctx, http.MethodPost, "/jobs", j, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateJob proxies a partial update of an upstream job.
func (c *Client) UpdateJob(ctx context.Context, externalID string, fields map[string]interface{}) error {
	return c.do(ctx, http.MethodPut, "/jobs/"+externalID, fields, nil)
}

// DeleteJob proxies an upstream deletion.
func (c *Client) DeleteJob(ctx context.Context, externalID string) error {
	return c.do(ctx, http.MethodDelete, "/jobs/"+externalID, nil, nil)
}

// AssignJob proxies an assignment upstream.
func (c *Client) AssignJob(ctx context.Context, externalID, vendorID string) error {
	return c.do(ctx, http.MethodPost, "/jobs/"+externalID+"/assign", map[string]interface{}{
		"vendorId": vendorID,
	}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !c.Enabled() {
		return fmt.Errorf("job-board API is not configured")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("job-board API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("job-board API returned status %d: %s", resp.StatusCode, string(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode job-board API response: %w", err)
		}
	}
	return nil
}
