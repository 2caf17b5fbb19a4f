// Package monitoring observes the scheduler's aggregate metrics,
// raises threshold alerts with de-duplication and delivers them
// best-effort through the configured notification channels.
package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avelane/seowatch/internal/config"
	"github.com/avelane/seowatch/internal/metrics"
	"github.com/avelane/seowatch/internal/scheduler"
)

// MetricsSource provides the aggregate crawl metrics to evaluate.
type MetricsSource interface {
	Metrics() scheduler.Metrics
}

// Channel delivers an alert to one notification target.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// AlertStore archives alerts. Writes are best-effort.
type AlertStore interface {
	SaveAlert(alert Alert) error
}

// Options tunes the monitor.
type Options struct {
	Clock func() time.Time // defaults to time.Now
	Store AlertStore       // optional archive
}

// Monitor evaluates thresholds on a fixed tick and owns the bounded,
// newest-first alert history.
type Monitor struct {
	source   MetricsSource
	channels []Channel
	store    AlertStore
	now      func() time.Time

	mu     sync.Mutex
	cfg    config.AlertingConfig
	alerts []*Alert // newest first

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewMonitor creates a monitor. channels may be empty; alerts are then
// stored but not delivered anywhere.
func NewMonitor(source MetricsSource, cfg config.AlertingConfig, channels []Channel, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Monitor{
		source:   source,
		channels: channels,
		store:    opts.Store,
		now:      opts.Clock,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the evaluation loop. It returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	tick := m.cfg.TickInterval
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		slog.Info("Monitoring started", "tick_interval", tick)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.CheckConditions(ctx)
			}
		}
	}()
}

// Stop terminates the evaluation loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
	slog.Info("Monitoring stopped")
}

// UpdateConfig replaces the alerting thresholds at runtime. The tick
// interval of an already started loop is not changed.
func (m *Monitor) UpdateConfig(cfg config.AlertingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// CheckConditions pulls the scheduler metrics and raises alerts for
// every breached threshold.
func (m *Monitor) CheckConditions(ctx context.Context) {
	agg := m.source.Metrics()

	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	if agg.TotalRuns > 0 {
		failureRate := float64(agg.FailedRuns) / float64(agg.TotalRuns) * 100
		if failureRate >= cfg.CrawlFailureThreshold {
			severity := SeverityMedium
			switch {
			case failureRate >= cfg.FailureRateCritical:
				severity = SeverityCritical
			case failureRate >= cfg.FailureRateHigh:
				severity = SeverityHigh
			}
			m.createAlert(ctx, Alert{
				Type:     TypeCrawlFailure,
				Severity: severity,
				Message:  fmt.Sprintf("crawl failure rate at %.1f%% over the last 24h (%d of %d runs failed)", failureRate, agg.FailedRuns, agg.TotalRuns),
				Details: map[string]any{
					"failureRate":    failureRate,
					"failedRuns":     agg.FailedRuns,
					"totalRuns":      agg.TotalRuns,
					"recentFailures": agg.RecentFailures,
				},
			})
		}
	}

	if agg.AverageDuration > cfg.ResponseTimeThreshold {
		severity := SeverityMedium
		if agg.AverageDuration > cfg.ResponseTimeHigh {
			severity = SeverityHigh
		}
		m.createAlert(ctx, Alert{
			Type:     TypeResponseTime,
			Severity: severity,
			Message:  fmt.Sprintf("average crawl duration at %v exceeds %v", agg.AverageDuration, cfg.ResponseTimeThreshold),
			Details: map[string]any{
				"averageDurationMs": agg.AverageDuration.Milliseconds(),
				"thresholdMs":       cfg.ResponseTimeThreshold.Milliseconds(),
			},
		})
	}
}

// RecordExternalServiceError raises a high-severity alert on behalf of
// an external collaborator, bypassing threshold checks.
func (m *Monitor) RecordExternalServiceError(ctx context.Context, source, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	details["source"] = source

	m.createAlert(ctx, Alert{
		Type:     TypeExternalServiceError,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("%s: %s", source, message),
		Details:  details,
	})
}

// createAlert applies the de-duplication window, stores the alert and
// attempts delivery. A candidate matching an unacknowledged alert of
// the same type within the window is dropped entirely.
func (m *Monitor) createAlert(ctx context.Context, candidate Alert) {
	now := m.now()

	m.mu.Lock()
	windowStart := now.Add(-m.cfg.DedupWindow)
	for _, existing := range m.alerts {
		if existing.Type == candidate.Type && !existing.Acknowledged && existing.Timestamp.After(windowStart) {
			m.mu.Unlock()
			slog.Debug("Alert suppressed by dedup window", "type", candidate.Type, "existing_id", existing.ID)
			return
		}
	}

	candidate.ID = uuid.NewString()
	candidate.Timestamp = now
	stored := candidate

	m.alerts = append([]*Alert{&stored}, m.alerts...)
	if len(m.alerts) > m.cfg.HistoryLimit {
		m.alerts = m.alerts[:m.cfg.HistoryLimit]
	}
	m.mu.Unlock()

	metrics.AlertsTotal.WithLabelValues(string(candidate.Type), string(candidate.Severity)).Inc()
	slog.Warn("Alert raised", "id", candidate.ID, "type", candidate.Type, "severity", candidate.Severity, "message", candidate.Message)

	if m.store != nil {
		if err := m.store.SaveAlert(candidate); err != nil {
			slog.Warn("Failed to archive alert", "id", candidate.ID, "error", err)
		}
	}

	m.sendNotifications(ctx, candidate)
}

// sendNotifications attempts delivery on every channel independently.
// A failing channel never prevents the others, and never rolls back
// the stored alert.
func (m *Monitor) sendNotifications(ctx context.Context, alert Alert) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(m.channels))

	for _, channel := range m.channels {
		result := DeliveryResult{Channel: channel.Name(), Delivered: true}
		if err := channel.Send(ctx, alert); err != nil {
			result.Delivered = false
			result.Error = err.Error()
			slog.Warn("Alert delivery failed", "channel", channel.Name(), "alert_id", alert.ID, "error", err)
			metrics.NotificationsTotal.WithLabelValues(channel.Name(), "failed").Inc()
		} else {
			slog.Info("Alert delivered", "channel", channel.Name(), "alert_id", alert.ID)
			metrics.NotificationsTotal.WithLabelValues(channel.Name(), "delivered").Inc()
		}
		results = append(results, result)
	}

	return results
}

// Acknowledge marks an alert acknowledged. It returns false for an
// unknown id. Acknowledging twice returns true and keeps the alert
// acknowledged.
func (m *Monitor) Acknowledge(alertID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, alert := range m.alerts {
		if alert.ID == alertID {
			alert.Acknowledged = true
			return true
		}
	}
	return false
}

// AcknowledgeAll acknowledges every open alert and returns the number
// of alerts transitioned.
func (m *Monitor) AcknowledgeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, alert := range m.alerts {
		if !alert.Acknowledged {
			alert.Acknowledged = true
			count++
		}
	}
	return count
}

// Alerts returns up to limit alerts, newest first. limit <= 0 returns
// every retained alert.
func (m *Monitor) Alerts(limit int) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.alerts) {
		limit = len(m.alerts)
	}
	result := make([]Alert, 0, limit)
	for _, alert := range m.alerts[:limit] {
		result = append(result, *alert)
	}
	return result
}

// Snapshot composes the dashboard view: current metrics, recent
// alerts, the unacknowledged count and the derived system health.
func (m *Monitor) Snapshot() DashboardSnapshot {
	agg := m.source.Metrics()

	m.mu.Lock()
	cfg := m.cfg
	unacked := 0
	criticalOpen := false
	for _, alert := range m.alerts {
		if !alert.Acknowledged {
			unacked++
			if alert.Severity == SeverityCritical {
				criticalOpen = true
			}
		}
	}
	m.mu.Unlock()

	return DashboardSnapshot{
		Metrics:        agg,
		RecentAlerts:   m.Alerts(10),
		Unacknowledged: unacked,
		SystemHealth:   deriveHealth(agg, cfg, criticalOpen),
		GeneratedAt:    m.now(),
	}
}

// deriveHealth computes the tri-state summary from the failure rate,
// the average duration and the presence of open critical alerts.
func deriveHealth(agg scheduler.Metrics, cfg config.AlertingConfig, criticalOpen bool) SystemHealth {
	if criticalOpen {
		return HealthCritical
	}

	var failureRate float64
	if agg.TotalRuns > 0 {
		failureRate = float64(agg.FailedRuns) / float64(agg.TotalRuns) * 100
	}

	if failureRate >= cfg.FailureRateCritical {
		return HealthCritical
	}
	if failureRate >= cfg.CrawlFailureThreshold || agg.AverageDuration > cfg.ResponseTimeThreshold {
		return HealthWarning
	}
	return HealthHealthy
}
