package reporting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avelane/seowatch/internal/config"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ReportingConfig
		want bool
	}{
		{"both set", config.ReportingConfig{APIURL: "https://api.example.com", APIKey: "k"}, true},
		{"missing key", config.ReportingConfig{APIURL: "https://api.example.com"}, false},
		{"missing url", config.ReportingConfig{APIKey: "k"}, false},
		{"empty", config.ReportingConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cfg, 0, nil)
			if got := c.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateReport(t *testing.T) {
	var received reportRequest
	var auth, contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	clock := func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	c := NewClient(config.ReportingConfig{APIURL: server.URL, APIKey: "secret"}, 5*time.Second, clock)

	err := c.GenerateReport(context.Background(), "https://example.com/fr/tarifs", "pricing", "fr")
	if err != nil {
		t.Fatalf("GenerateReport() failed: %v", err)
	}

	if auth != "Bearer secret" {
		t.Errorf("Expected bearer auth header, got %q", auth)
	}
	if contentType != "application/json" {
		t.Errorf("Expected application/json, got %q", contentType)
	}
	if received.URL != "https://example.com/fr/tarifs" || received.PageKey != "pricing" || received.Locale != "fr" {
		t.Errorf("Unexpected request body: %+v", received)
	}
	if !received.Timestamp.Equal(clock()) {
		t.Errorf("Expected injected timestamp, got %v", received.Timestamp)
	}
}

func TestGenerateReportAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	}))
	defer server.Close()

	c := NewClient(config.ReportingConfig{APIURL: server.URL, APIKey: "secret"}, 5*time.Second, nil)
	err := c.GenerateReport(context.Background(), "https://example.com/en/pricing", "pricing", "en")
	if err == nil {
		t.Fatalf("Expected error on 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Expected status and body in error, got %v", err)
	}
}

func TestGenerateReportUnconfigured(t *testing.T) {
	c := NewClient(config.ReportingConfig{}, 0, nil)
	if err := c.GenerateReport(context.Background(), "https://example.com/", "home", "en"); err == nil {
		t.Errorf("Expected error for unconfigured client")
	}
}

func TestGenerateReportUnreachable(t *testing.T) {
	c := NewClient(config.ReportingConfig{APIURL: "http://127.0.0.1:1", APIKey: "secret"}, 500*time.Millisecond, nil)
	if err := c.GenerateReport(context.Background(), "https://example.com/", "home", "en"); err == nil {
		t.Errorf("Expected error for unreachable endpoint")
	}
}
