// Package reporting submits crawl results to the external search
// analytics API. The client is optional: when no endpoint or key is
// configured it reports itself as unconfigured and the scheduler skips
// the reporting step.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avelane/seowatch/internal/config"
)

// reportRequest is the JSON body submitted per page run.
type reportRequest struct {
	URL       string    `json:"url"`
	PageKey   string    `json:"pageKey"`
	Locale    string    `json:"locale"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to the search analytics API.
type Client struct {
	apiURL string
	apiKey string
	client *http.Client
	now    func() time.Time
}

// NewClient creates a reporting client from cfg. Pass a nil clock to
// use the wall clock.
func NewClient(cfg config.ReportingConfig, timeout time.Duration, clock func() time.Time) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Client{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
		now: clock,
	}
}

// IsConfigured reports whether both the endpoint and the key are set.
func (c *Client) IsConfigured() bool {
	return c.apiURL != "" && c.apiKey != ""
}

// GenerateReport submits one page run to the analytics API. The caller
// is expected to treat failures as run errors, not fatal conditions.
func (c *Client) GenerateReport(ctx context.Context, pageURL, pageKey, locale string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("reporting client not configured")
	}

	body, err := json.Marshal(reportRequest{
		URL:       pageURL,
		PageKey:   pageKey,
		Locale:    locale,
		Timestamp: c.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a short error body for context, ignore read failures.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(detail) > 0 {
			return fmt.Errorf("analytics API returned status %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("analytics API returned status %d", resp.StatusCode)
	}
	return nil
}
