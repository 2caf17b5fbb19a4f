package monitoring

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avelane/seowatch/internal/config"
	"github.com/avelane/seowatch/internal/metrics"
	"github.com/avelane/seowatch/internal/scheduler"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// fakeSource serves a settable metrics snapshot.
type fakeSource struct {
	mu sync.Mutex
	m  scheduler.Metrics
}

func (f *fakeSource) Metrics() scheduler.Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m
}

func (f *fakeSource) set(m scheduler.Metrics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m = m
}

// fakeChannel records sends and optionally fails.
type fakeChannel struct {
	name  string
	err   error
	sent  []Alert
	mu    sync.Mutex
	calls int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, alert Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, alert)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testAlertingConfig() config.AlertingConfig {
	return config.AlertingConfig{
		TickInterval:          5 * time.Minute,
		HistoryLimit:          100,
		DedupWindow:           1 * time.Hour,
		CrawlFailureThreshold: 5,
		FailureRateHigh:       10,
		FailureRateCritical:   20,
		ResponseTimeThreshold: 200 * time.Millisecond,
		ResponseTimeHigh:      1 * time.Second,
	}
}

func failureMetrics(total, failed int) scheduler.Metrics {
	return scheduler.Metrics{
		TotalRuns:      total,
		SuccessfulRuns: total - failed,
		FailedRuns:     failed,
		SuccessRate:    float64(total-failed) / float64(total) * 100,
	}
}

func TestCheckConditionsCrawlFailureSeverity(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		failed       int
		wantSeverity Severity
	}{
		{"at threshold", 100, 5, SeverityMedium},
		{"high tier", 100, 12, SeverityHigh},
		{"critical tier", 10, 3, SeverityCritical}, // 30% >= 20%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{}
			source.set(failureMetrics(tt.total, tt.failed))
			clock := &fakeClock{t: time.Now()}
			m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

			m.CheckConditions(context.Background())

			alerts := m.Alerts(0)
			if len(alerts) != 1 {
				t.Fatalf("Expected exactly 1 alert, got %d", len(alerts))
			}
			if alerts[0].Type != TypeCrawlFailure {
				t.Errorf("Expected crawl_failure alert, got %v", alerts[0].Type)
			}
			if alerts[0].Severity != tt.wantSeverity {
				t.Errorf("Expected severity %v, got %v", tt.wantSeverity, alerts[0].Severity)
			}
		})
	}
}

func TestCheckConditionsBelowThreshold(t *testing.T) {
	source := &fakeSource{}
	source.set(failureMetrics(100, 2)) // 2% < 5%
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.CheckConditions(context.Background())

	if alerts := m.Alerts(0); len(alerts) != 0 {
		t.Errorf("Expected no alerts below threshold, got %d", len(alerts))
	}
}

func TestCheckConditionsZeroRuns(t *testing.T) {
	source := &fakeSource{}
	source.set(scheduler.Metrics{SuccessRate: 100})
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.CheckConditions(context.Background())

	if alerts := m.Alerts(0); len(alerts) != 0 {
		t.Errorf("Expected no alerts with zero runs, got %d", len(alerts))
	}
}

func TestCheckConditionsResponseTime(t *testing.T) {
	tests := []struct {
		name         string
		avg          time.Duration
		wantSeverity Severity
	}{
		{"medium above threshold", 500 * time.Millisecond, SeverityMedium},
		{"high above 1s", 1500 * time.Millisecond, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{}
			source.set(scheduler.Metrics{
				TotalRuns:       10,
				SuccessfulRuns:  10,
				SuccessRate:     100,
				AverageDuration: tt.avg,
			})
			clock := &fakeClock{t: time.Now()}
			m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

			m.CheckConditions(context.Background())

			alerts := m.Alerts(0)
			if len(alerts) != 1 {
				t.Fatalf("Expected exactly 1 alert, got %d", len(alerts))
			}
			if alerts[0].Type != TypeResponseTime || alerts[0].Severity != tt.wantSeverity {
				t.Errorf("Expected response_time/%v, got %v/%v", tt.wantSeverity, alerts[0].Type, alerts[0].Severity)
			}
		})
	}
}

func TestAlertDeduplication(t *testing.T) {
	source := &fakeSource{}
	source.set(failureMetrics(10, 3))
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	// Two qualifying conditions of the same type within the window
	m.CheckConditions(context.Background())
	clock.Advance(10 * time.Minute)
	m.CheckConditions(context.Background())

	alerts := m.Alerts(0)
	if len(alerts) != 1 {
		t.Fatalf("Expected dedup to keep a single alert, got %d", len(alerts))
	}

	// Acknowledging opens the door for a new alert inside the same hour
	if !m.Acknowledge(alerts[0].ID) {
		t.Fatalf("Acknowledge() returned false for a known id")
	}
	clock.Advance(1 * time.Minute)
	m.CheckConditions(context.Background())

	alerts = m.Alerts(0)
	if len(alerts) != 2 {
		t.Fatalf("Expected a new alert after acknowledgment, got %d", len(alerts))
	}
	if alerts[0].Acknowledged {
		t.Errorf("Expected the new alert to start unacknowledged")
	}
}

func TestAlertDedupWindowExpiry(t *testing.T) {
	source := &fakeSource{}
	source.set(failureMetrics(10, 3))
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.CheckConditions(context.Background())
	clock.Advance(61 * time.Minute)
	m.CheckConditions(context.Background())

	if alerts := m.Alerts(0); len(alerts) != 2 {
		t.Errorf("Expected a second alert after the window elapsed, got %d", len(alerts))
	}
}

func TestAcknowledge(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.RecordExternalServiceError(context.Background(), "cdn", "purge failed", nil)
	id := m.Alerts(0)[0].ID

	if m.Acknowledge("no-such-id") {
		t.Errorf("Expected false for unknown alert id")
	}

	if !m.Acknowledge(id) {
		t.Errorf("Expected true for known alert id")
	}

	// Idempotent-safe: second call returns true, alert stays acknowledged
	if !m.Acknowledge(id) {
		t.Errorf("Expected second acknowledge to return true")
	}
	if !m.Alerts(0)[0].Acknowledged {
		t.Errorf("Expected alert to remain acknowledged")
	}
}

func TestAcknowledgeAll(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.RecordExternalServiceError(context.Background(), "cdn", "purge failed", nil)
	clock.Advance(time.Minute)
	m.RecordExternalServiceError(context.Background(), "search-console", "quota exceeded", nil)

	// The second call is suppressed by dedup (same type), so only one exists
	if count := m.AcknowledgeAll(); count != 1 {
		t.Errorf("Expected 1 alert transitioned, got %d", count)
	}
	if count := m.AcknowledgeAll(); count != 0 {
		t.Errorf("Expected 0 alerts on second pass, got %d", count)
	}
}

func TestRecordExternalServiceError(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	m.RecordExternalServiceError(context.Background(), "cdn", "invalidation failed", map[string]any{"zone": "example.com"})

	alerts := m.Alerts(0)
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	alert := alerts[0]
	if alert.Type != TypeExternalServiceError || alert.Severity != SeverityHigh {
		t.Errorf("Expected external_service_error/high, got %v/%v", alert.Type, alert.Severity)
	}
	if !strings.Contains(alert.Message, "cdn") {
		t.Errorf("Expected source in message, got %q", alert.Message)
	}
	if alert.Details["source"] != "cdn" || alert.Details["zone"] != "example.com" {
		t.Errorf("Expected details to carry source and payload, got %v", alert.Details)
	}
	if alert.ID == "" {
		t.Errorf("Expected generated alert id")
	}
}

func TestNotificationsBestEffort(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	failing := &fakeChannel{name: "email", err: errors.New("smtp unreachable")}
	working := &fakeChannel{name: "webhook"}
	m := NewMonitor(source, testAlertingConfig(), []Channel{failing, working}, Options{Clock: clock.Now})

	m.RecordExternalServiceError(context.Background(), "cdn", "purge failed", nil)

	if failing.calls != 1 {
		t.Errorf("Expected failing channel to be attempted once, got %d", failing.calls)
	}
	if len(working.sent) != 1 {
		t.Errorf("Expected working channel to deliver despite the other failing, got %d", len(working.sent))
	}

	// The delivery failure does not roll back the stored alert
	if len(m.Alerts(0)) != 1 {
		t.Errorf("Expected alert to remain stored after delivery failure")
	}
}

func TestAlertHistoryEviction(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	cfg := testAlertingConfig()
	cfg.HistoryLimit = 3
	cfg.DedupWindow = time.Nanosecond // effectively disable dedup for this test
	m := NewMonitor(source, cfg, nil, Options{Clock: clock.Now})

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		m.RecordExternalServiceError(context.Background(), "cdn", "purge failed", nil)
	}

	alerts := m.Alerts(0)
	if len(alerts) != 3 {
		t.Fatalf("Expected history capped at 3, got %d", len(alerts))
	}
	for i := 1; i < len(alerts); i++ {
		if alerts[i].Timestamp.After(alerts[0].Timestamp) {
			t.Errorf("Alert history not newest-first")
		}
	}
}

func TestSnapshotHealth(t *testing.T) {
	tests := []struct {
		name       string
		metrics    scheduler.Metrics
		raise      func(m *Monitor)
		wantHealth SystemHealth
	}{
		{
			name:       "healthy with no runs",
			metrics:    scheduler.Metrics{SuccessRate: 100},
			wantHealth: HealthHealthy,
		},
		{
			name:       "warning on slow crawls",
			metrics:    scheduler.Metrics{TotalRuns: 10, SuccessfulRuns: 10, SuccessRate: 100, AverageDuration: 400 * time.Millisecond},
			wantHealth: HealthWarning,
		},
		{
			name:       "warning on moderate failures",
			metrics:    failureMetrics(100, 7),
			wantHealth: HealthWarning,
		},
		{
			name:       "critical on heavy failures",
			metrics:    failureMetrics(10, 4),
			wantHealth: HealthCritical,
		},
		{
			name:    "critical on open critical alert",
			metrics: scheduler.Metrics{SuccessRate: 100},
			raise: func(m *Monitor) {
				m.createAlert(context.Background(), Alert{Type: TypeCrawlFailure, Severity: SeverityCritical, Message: "x"})
			},
			wantHealth: HealthCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{}
			source.set(tt.metrics)
			clock := &fakeClock{t: time.Now()}
			m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

			if tt.raise != nil {
				tt.raise(m)
			}

			snapshot := m.Snapshot()
			if snapshot.SystemHealth != tt.wantHealth {
				t.Errorf("Expected health %v, got %v", tt.wantHealth, snapshot.SystemHealth)
			}
		})
	}
}

func TestSnapshotCountsUnacknowledged(t *testing.T) {
	source := &fakeSource{}
	clock := &fakeClock{t: time.Now()}
	cfg := testAlertingConfig()
	cfg.DedupWindow = time.Nanosecond
	m := NewMonitor(source, cfg, nil, Options{Clock: clock.Now})

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		m.RecordExternalServiceError(context.Background(), "cdn", "purge failed", nil)
	}
	m.Acknowledge(m.Alerts(1)[0].ID)

	snapshot := m.Snapshot()
	if snapshot.Unacknowledged != 2 {
		t.Errorf("Expected 2 unacknowledged alerts, got %d", snapshot.Unacknowledged)
	}
	if len(snapshot.RecentAlerts) != 3 {
		t.Errorf("Expected 3 recent alerts, got %d", len(snapshot.RecentAlerts))
	}
}

func TestUpdateConfigRaisesThreshold(t *testing.T) {
	source := &fakeSource{}
	source.set(failureMetrics(100, 7)) // 7%
	clock := &fakeClock{t: time.Now()}
	m := NewMonitor(source, testAlertingConfig(), nil, Options{Clock: clock.Now})

	cfg := testAlertingConfig()
	cfg.CrawlFailureThreshold = 50
	m.UpdateConfig(cfg)

	m.CheckConditions(context.Background())
	if alerts := m.Alerts(0); len(alerts) != 0 {
		t.Errorf("Expected no alerts after raising the threshold, got %d", len(alerts))
	}
}

func TestStartStop(t *testing.T) {
	source := &fakeSource{}
	cfg := testAlertingConfig()
	cfg.TickInterval = 10 * time.Millisecond
	m := NewMonitor(source, cfg, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	m.Stop()
}
