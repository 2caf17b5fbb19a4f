// Package notify implements the alert delivery channels. Each channel
// satisfies the monitoring.Channel interface and is constructed from
// its section of the notification configuration.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avelane/seowatch/internal/monitoring"
)

// webhookPayload is the JSON body posted to the configured endpoint.
type webhookPayload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// WebhookChannel delivers alerts as JSON POST requests.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// NewWebhookChannel creates a webhook channel targeting url.
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements monitoring.Channel.
func (w *WebhookChannel) Name() string {
	return "webhook"
}

// Send posts the alert to the configured endpoint. Any response status
// outside 2xx is treated as a delivery failure.
func (w *WebhookChannel) Send(ctx context.Context, alert monitoring.Alert) error {
	payload := webhookPayload{
		ID:        alert.ID,
		Type:      string(alert.Type),
		Severity:  string(alert.Severity),
		Message:   alert.Message,
		Details:   alert.Details,
		Timestamp: alert.Timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
