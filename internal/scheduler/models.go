package scheduler

import (
	"fmt"
	"time"
)

// Frequency is the cadence at which a page is crawled.
type Frequency string

const (
	// FreqHourly runs one hour after the previous computation time
	FreqHourly Frequency = "hourly"
	// FreqDaily runs the next calendar day at 02:00
	FreqDaily Frequency = "daily"
	// FreqWeekly runs seven days later at 02:00
	FreqWeekly Frequency = "weekly"
	// FreqMonthly runs the first day of the next month at 02:00
	FreqMonthly Frequency = "monthly"
)

// ParseFrequency converts a frequency name to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FreqHourly, FreqDaily, FreqWeekly, FreqMonthly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

// RunStatus is the settled or in-flight state of a schedule entry.
type RunStatus string

const (
	// StatusRunning marks an entry currently being processed
	StatusRunning RunStatus = "running"
	// StatusSuccess marks a run that accumulated no errors
	StatusSuccess RunStatus = "success"
	// StatusError marks a run that accumulated at least one error
	StatusError RunStatus = "error"
)

// ScheduleEntry is the per-page schedule bookkeeping. At most one entry
// exists per page id.
type ScheduleEntry struct {
	PageID           string    `json:"pageId"`
	CrawlEnabled     bool      `json:"crawlEnabled"`
	ReportingEnabled bool      `json:"reportingEnabled"`
	Frequency        Frequency `json:"frequency"`
	NextRun          time.Time `json:"nextRun"`
	LastRun          time.Time `json:"lastRun"`
	LastStatus       RunStatus `json:"lastStatus,omitempty"`
	LastError        string    `json:"lastError,omitempty"`
}

// CrawlOutcome records one completed run. Outcomes are immutable once
// appended to the history.
type CrawlOutcome struct {
	PageID    string        `json:"pageId"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"durationMs"`
	SEOScore  *float64      `json:"seoScore,omitempty"`
	Errors    []string      `json:"errors"`
	Timestamp time.Time     `json:"timestamp"`
}

// FailureSummary is a compact view of a failed run for dashboards.
type FailureSummary struct {
	PageID    string    `json:"pageId"`
	Errors    []string  `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics aggregates the last 24 hours of crawl history.
type Metrics struct {
	TotalRuns       int              `json:"totalRuns"`
	SuccessfulRuns  int              `json:"successfulRuns"`
	FailedRuns      int              `json:"failedRuns"`
	SuccessRate     float64          `json:"successRate"`     // percentage; 100 when no runs occurred
	AverageDuration time.Duration    `json:"averageDuration"` // 0 when no runs occurred
	RecentFailures  []FailureSummary `json:"recentFailures"`
}

// ComputeNextRun returns the next run time for a frequency, computed
// from the given reference time. The result is always strictly after
// from. Calendar arithmetic uses from's location; no explicit timezone
// handling beyond the host clock.
func ComputeNextRun(freq Frequency, from time.Time) time.Time {
	switch freq {
	case FreqHourly:
		return from.Add(1 * time.Hour)
	case FreqWeekly:
		next := from.AddDate(0, 0, 7)
		return atTwo(next)
	case FreqMonthly:
		firstOfNext := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, from.Location())
		return atTwo(firstOfNext)
	default: // daily
		return atTwo(from.AddDate(0, 0, 1))
	}
}

// atTwo normalizes a date to 02:00 local time.
func atTwo(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 2, 0, 0, 0, t.Location())
}
