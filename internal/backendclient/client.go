package backendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dev-Aaron27/fireboard/internal/models"
)

// Status is the outcome of an ad submission.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusDuplicate Status = "duplicate"
)

// Client for submitting ads to the Fire Board backend.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a new backend API client. url is the full ads endpoint,
// e.g. "http://localhost:8080/api/ads".
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SubmitAd posts one ad record to the backend. The backend answers 200 for
// both fresh and duplicate submissions; any other status is an error carrying
// the backend's error message. No retries happen here.
func (c *Client) SubmitAd(ctx context.Context, ad *models.Ad) (Status, error) {
	body, err := json.Marshal(ad)
	if err != nil {
		return "", fmt.Errorf("failed to encode ad: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
			return "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, errResp.Error)
		}
		return "", fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var okResp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&okResp); err != nil {
		return "", fmt.Errorf("failed to decode backend response: %w", err)
	}

	if okResp.Status == "duplicate" {
		return StatusDuplicate, nil
	}
	return StatusAccepted, nil
}
