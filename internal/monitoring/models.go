package monitoring

import (
	"time"

	"github.com/avelane/seowatch/internal/scheduler"
)

// AlertType classifies the condition that raised an alert.
type AlertType string

const (
	// TypeCrawlFailure is raised when the 24h failure rate breaches the threshold
	TypeCrawlFailure AlertType = "crawl_failure"
	// TypeResponseTime is raised when the average crawl duration breaches the threshold
	TypeResponseTime AlertType = "response_time"
	// TypeExternalServiceError is raised directly by collaborators
	TypeExternalServiceError AlertType = "external_service_error"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is one detected anomalous condition. The only mutation after
// creation is the irreversible acknowledged transition.
type Alert struct {
	ID           string         `json:"id"`
	Type         AlertType      `json:"type"`
	Severity     Severity       `json:"severity"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Acknowledged bool           `json:"acknowledged"`
}

// DeliveryResult tags the outcome of one notification channel attempt.
type DeliveryResult struct {
	Channel   string `json:"channel"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// SystemHealth is the derived tri-state health summary.
type SystemHealth string

const (
	HealthHealthy  SystemHealth = "healthy"
	HealthWarning  SystemHealth = "warning"
	HealthCritical SystemHealth = "critical"
)

// DashboardSnapshot composes the monitoring state for the admin UI.
type DashboardSnapshot struct {
	Metrics        scheduler.Metrics `json:"metrics"`
	RecentAlerts   []Alert           `json:"recentAlerts"`
	Unacknowledged int               `json:"unacknowledgedCount"`
	SystemHealth   SystemHealth      `json:"systemHealth"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}
