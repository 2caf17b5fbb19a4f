// Package scheduler decides which pages are due for an SEO run,
// executes the runs and maintains the rolling crawl history.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avelane/seowatch/internal/crawler"
	"github.com/avelane/seowatch/internal/metrics"
	"github.com/avelane/seowatch/internal/pages"
)

// Reporter is the search-console reporting collaborator.
type Reporter interface {
	IsConfigured() bool
	GenerateReport(ctx context.Context, url, pageKey, locale string) error
}

// OutcomeStore archives completed runs. Writes are best-effort; the
// in-memory history stays the source of truth for metrics.
type OutcomeStore interface {
	SaveOutcome(outcome CrawlOutcome) error
}

// Options tunes the scheduler.
type Options struct {
	TickInterval time.Duration
	HistoryLimit int
	Clock        func() time.Time // defaults to time.Now
	Store        OutcomeStore     // optional archive
}

// Scheduler owns the per-page schedule table and the bounded,
// newest-first crawl history. All state is process-local; a restart
// loses history and schedule positions.
type Scheduler struct {
	registry *pages.Registry
	crawler  crawler.Crawler
	reporter Reporter
	store    OutcomeStore

	tickInterval time.Duration
	historyLimit int
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*ScheduleEntry
	history []CrawlOutcome // newest first

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates a scheduler with one schedule entry per
// registered page. Initial next-run times are computed from the
// current clock so a fresh process does not crawl everything at once.
func NewScheduler(registry *pages.Registry, cr crawler.Crawler, reporter Reporter, opts Options) (*Scheduler, error) {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 1 * time.Minute
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 1000
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Scheduler{
		registry:     registry,
		crawler:      cr,
		reporter:     reporter,
		store:        opts.Store,
		tickInterval: opts.TickInterval,
		historyLimit: opts.HistoryLimit,
		now:          opts.Clock,
		entries:      make(map[string]*ScheduleEntry),
		stopCh:       make(chan struct{}),
	}

	for _, page := range registry.All() {
		freq, err := ParseFrequency(page.Frequency)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", page.ID, err)
		}
		s.entries[page.ID] = &ScheduleEntry{
			PageID:           page.ID,
			CrawlEnabled:     page.CrawlEnabled,
			ReportingEnabled: page.ReportingEnabled,
			Frequency:        freq,
			NextRun:          ComputeNextRun(freq, s.now()),
		}
	}

	return s, nil
}

// Start launches the tick loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		slog.Info("Scheduler started", "tick_interval", s.tickInterval, "pages", len(s.entries))
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop terminates the tick loop. In-flight runs are not awaited; the
// process is expected to be shutting down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// tick processes every due entry sequentially. A slow page delays the
// pages behind it within the same tick but never blocks them for good.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []string
	for id, entry := range s.entries {
		if entry.LastStatus != StatusRunning && !entry.NextRun.After(now) {
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		if ctx.Err() != nil {
			return
		}
		s.runOne(ctx, id)
	}
}

// TriggerNow runs a page immediately, outside its schedule. It fails
// with ErrScheduleNotFound for unknown pages and ErrRunInProgress when
// the entry has not settled yet.
func (s *Scheduler) TriggerNow(ctx context.Context, pageID string) error {
	s.mu.Lock()
	entry, ok := s.entries[pageID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrScheduleNotFound, pageID)
	}
	if entry.LastStatus == StatusRunning {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunInProgress, pageID)
	}
	s.mu.Unlock()

	s.runOne(ctx, pageID)
	return nil
}

// ScheduleUpdate carries a partial schedule reconfiguration. Nil
// fields are left unchanged.
type ScheduleUpdate struct {
	Frequency        *Frequency `json:"frequency,omitempty"`
	CrawlEnabled     *bool      `json:"crawlEnabled,omitempty"`
	ReportingEnabled *bool      `json:"reportingEnabled,omitempty"`
}

// UpdateSchedule merges the update into the entry. A frequency change
// recomputes the next run from the current time, not from the previous
// schedule position.
func (s *Scheduler) UpdateSchedule(pageID string, update ScheduleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[pageID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScheduleNotFound, pageID)
	}

	if update.CrawlEnabled != nil {
		entry.CrawlEnabled = *update.CrawlEnabled
	}
	if update.ReportingEnabled != nil {
		entry.ReportingEnabled = *update.ReportingEnabled
	}
	if update.Frequency != nil && *update.Frequency != entry.Frequency {
		freq, err := ParseFrequency(string(*update.Frequency))
		if err != nil {
			return err
		}
		entry.Frequency = freq
		entry.NextRun = ComputeNextRun(freq, s.now())
	}

	return nil
}

// Entries returns a snapshot of every schedule entry.
func (s *Scheduler) Entries() []ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ScheduleEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, *entry)
	}
	return result
}

// History returns up to limit outcomes, newest first. limit <= 0
// returns the whole history.
func (s *Scheduler) History(limit int) []CrawlOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]CrawlOutcome, limit)
	copy(result, s.history[:limit])
	return result
}

// Metrics aggregates the last 24 hours of history. With zero runs the
// success rate is 100 and the average duration 0.
func (s *Scheduler) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-24 * time.Hour)
	m := Metrics{SuccessRate: 100}

	var totalDuration time.Duration
	for _, outcome := range s.history {
		if outcome.Timestamp.Before(cutoff) {
			continue
		}
		m.TotalRuns++
		totalDuration += outcome.Duration
		if outcome.Success {
			m.SuccessfulRuns++
		} else {
			m.FailedRuns++
			if len(m.RecentFailures) < 10 {
				m.RecentFailures = append(m.RecentFailures, FailureSummary{
					PageID:    outcome.PageID,
					Errors:    outcome.Errors,
					Timestamp: outcome.Timestamp,
				})
			}
		}
	}

	if m.TotalRuns > 0 {
		m.SuccessRate = float64(m.SuccessfulRuns) / float64(m.TotalRuns) * 100
		m.AverageDuration = totalDuration / time.Duration(m.TotalRuns)
	}

	return m
}

// runOne executes the crawl and reporting steps for a page. Every
// collaborator failure is caught and folded into the outcome; nothing
// escapes to the tick loop.
func (s *Scheduler) runOne(ctx context.Context, pageID string) {
	now := s.now()

	s.mu.Lock()
	entry, ok := s.entries[pageID]
	if !ok || entry.LastStatus == StatusRunning {
		s.mu.Unlock()
		return
	}
	entry.LastStatus = StatusRunning
	entry.LastRun = now
	crawlEnabled := entry.CrawlEnabled
	reportingEnabled := entry.ReportingEnabled
	freq := entry.Frequency
	s.mu.Unlock()

	var (
		errs     []string
		score    *float64
		duration time.Duration
	)

	page, err := s.registry.Get(pageID)
	if err != nil {
		errs = append(errs, fmt.Sprintf("resolve page: %v", err))
	}

	if err == nil && crawlEnabled {
		result, crawlErr := s.crawler.Crawl(ctx, crawler.Request{URL: page.URL, Render: page.Render})
		switch {
		case crawlErr != nil:
			errs = append(errs, fmt.Sprintf("crawl: %v", crawlErr))
		case result.Status != crawler.StatusSuccess:
			duration = result.Duration
			errs = append(errs, fmt.Sprintf("crawl: %s: %s", result.Status, result.ErrorDetails))
		default:
			duration = result.Duration
			value := result.Score
			score = &value
			metrics.SEOScore.WithLabelValues(pageID).Set(value)
		}
	}

	if err == nil && reportingEnabled && s.reporter != nil && s.reporter.IsConfigured() {
		if reportErr := s.reporter.GenerateReport(ctx, page.URL, page.Key, page.Locale); reportErr != nil {
			errs = append(errs, fmt.Sprintf("report: %v", reportErr))
		}
	}

	settledAt := s.now()
	outcome := CrawlOutcome{
		PageID:    pageID,
		Success:   len(errs) == 0,
		Duration:  duration,
		SEOScore:  score,
		Errors:    errs,
		Timestamp: settledAt,
	}

	s.mu.Lock()
	if len(errs) > 0 {
		entry.LastStatus = StatusError
		entry.LastError = strings.Join(errs, "; ")
	} else {
		entry.LastStatus = StatusSuccess
		entry.LastError = ""
	}
	// No back-off: a failed page is retried on the same cadence
	entry.NextRun = ComputeNextRun(freq, settledAt)

	s.history = append([]CrawlOutcome{outcome}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
	s.mu.Unlock()

	status := "success"
	if !outcome.Success {
		status = "error"
	}
	metrics.CrawlsTotal.WithLabelValues(status).Inc()
	metrics.CrawlDuration.WithLabelValues(pageID).Observe(duration.Seconds())

	if s.store != nil {
		if storeErr := s.store.SaveOutcome(outcome); storeErr != nil {
			slog.Warn("Failed to archive crawl outcome", "page", pageID, "error", storeErr)
		}
	}

	slog.Info("Run settled", "page", pageID, "success", outcome.Success, "duration_ms", duration.Milliseconds(), "errors", len(errs))
}
