// Package api exposes the admin HTTP surface: schedule control, alert
// acknowledgment and the dashboard snapshot. Handlers translate between
// HTTP and the owning components and hold no state of their own.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/avelane/seowatch/internal/cache"
	"github.com/avelane/seowatch/internal/monitoring"
	"github.com/avelane/seowatch/internal/scheduler"
)

// SchedulerControl is the slice of the scheduler the API needs.
type SchedulerControl interface {
	Entries() []scheduler.ScheduleEntry
	History(limit int) []scheduler.CrawlOutcome
	TriggerNow(ctx context.Context, pageID string) error
	UpdateSchedule(pageID string, update scheduler.ScheduleUpdate) error
}

// AlertControl is the slice of the monitor the API needs.
type AlertControl interface {
	Alerts(limit int) []monitoring.Alert
	Acknowledge(alertID string) bool
	AcknowledgeAll() int
	Snapshot() monitoring.DashboardSnapshot
}

// OutcomeArchive serves archived run history. Optional.
type OutcomeArchive interface {
	RecentOutcomes(limit int) ([]scheduler.CrawlOutcome, error)
}

// Server holds the dependencies for the admin HTTP server.
type Server struct {
	addr       string
	router     http.Handler
	httpServer *http.Server
	sched      SchedulerControl
	alerts     AlertControl
	archive    OutcomeArchive
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewServer wires the admin API. archive may be nil when the SQLite
// archive is disabled; cacheTTL <= 0 disables dashboard caching.
func NewServer(addr string, sched SchedulerControl, alerts AlertControl, archive OutcomeArchive, c cache.Cache, cacheTTL time.Duration) *Server {
	s := &Server{
		addr:     addr,
		sched:    sched,
		alerts:   alerts,
		archive:  archive,
		cache:    c,
		cacheTTL: cacheTTL,
	}
	s.router = s.setupRouter()
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	slog.Info("Admin API listening", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router, exported for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
