// Package metrics exposes prometheus collectors for the SEO monitor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CrawlsTotal counts crawl runs by outcome.
	CrawlsTotal *prometheus.CounterVec
	// CrawlDuration observes per-run durations by page.
	CrawlDuration *prometheus.HistogramVec
	// SEOScore tracks the latest SEO score per page.
	SEOScore *prometheus.GaugeVec
	// AlertsTotal counts raised alerts by type and severity.
	AlertsTotal *prometheus.CounterVec
	// NotificationsTotal counts delivery attempts by channel and outcome.
	NotificationsTotal *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		CrawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seowatch_crawls_total",
				Help: "Total number of SEO crawl runs.",
			},
			[]string{"status"},
		)

		CrawlDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seowatch_crawl_duration_seconds",
				Help:    "Duration of SEO crawl runs.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"page"},
		)

		SEOScore = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seowatch_seo_score",
				Help: "Latest SEO score per page.",
			},
			[]string{"page"},
		)

		AlertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seowatch_alerts_total",
				Help: "Total number of alerts raised.",
			},
			[]string{"type", "severity"},
		)

		NotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seowatch_notifications_total",
				Help: "Notification delivery attempts by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		)
	})
}
