// Package notify posts a run summary to a webhook when a batch finishes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/backmassage/streamline/internal/config"
)

// Retry backoff bounds. Variables so tests can shorten them.
var (
	retryWaitMin = 1 * time.Second
	retryWaitMax = 5 * time.Second
)

// Summary is the JSON body posted to the webhook.
type Summary struct {
	RunID           string  `json:"run_id"`
	Source          string  `json:"source"`
	DryRun          bool    `json:"dry_run"`
	Found           int     `json:"found"`
	ProbeFailed     int     `json:"probe_failed"`
	NeedsWork       int     `json:"needs_work"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	BytesSaved      int64   `json:"bytes_saved"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Client posts summaries with retries on connection errors and 5xx.
type Client struct {
	url        string
	httpClient *http.Client
}

// New returns a client for cfg, or nil when no webhook is configured.
func New(cfg config.Notify) *Client {
	if cfg.WebhookURL == "" {
		return nil
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	rc.Logger = nil // Silence default debug logger

	return &Client{url: cfg.WebhookURL, httpClient: rc.StandardClient()}
}

// Send posts s as JSON. Any non-2xx final response is an error.
func (c *Client) Send(ctx context.Context, s Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "streamline")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
