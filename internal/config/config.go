// Package config provides configuration management for the SEO monitor.
// It defines configuration structures, default values and validation for
// the crawl schedule, alerting thresholds and notification channels.
package config

import (
	"fmt"
	"time"
)

// Frequency names accepted for page crawl schedules.
var validFrequencies = map[string]bool{
	"hourly":  true,
	"daily":   true,
	"weekly":  true,
	"monthly": true,
}

// PageConfig describes one monitored page of the marketing site.
// A page exists once per locale; each locale variant is scheduled
// independently under the id "<key>:<locale>".
type PageConfig struct {
	Key               string            `mapstructure:"key" yaml:"key"`                               // Stable page identifier (e.g. "home", "gallery")
	Paths             map[string]string `mapstructure:"paths" yaml:"paths"`                           // Locale -> URL path (e.g. "en" -> "/en/", "fr" -> "/fr/")
	Frequency         string            `mapstructure:"frequency" yaml:"frequency"`                   // hourly, daily, weekly or monthly
	CrawlDisabled     bool              `mapstructure:"crawl_disabled" yaml:"crawl_disabled"`         // Skip the crawl step for this page
	ReportingDisabled bool              `mapstructure:"reporting_disabled" yaml:"reporting_disabled"` // Skip the search-console sync for this page
	Render            bool              `mapstructure:"render" yaml:"render"`                         // Fetch through the headless browser instead of plain HTTP
}

// SchedulerConfig holds the crawl scheduler settings.
type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"` // How often due entries are checked
	HistoryLimit int           `mapstructure:"history_limit" yaml:"history_limit"` // Max retained crawl outcomes
}

// AlertingConfig holds monitoring thresholds and alert bookkeeping limits.
// The numeric breakpoints are tunable; the three-tier escalation shape is not.
type AlertingConfig struct {
	TickInterval          time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`                     // How often thresholds are evaluated
	HistoryLimit          int           `mapstructure:"history_limit" yaml:"history_limit"`                     // Max retained alerts
	DedupWindow           time.Duration `mapstructure:"dedup_window" yaml:"dedup_window"`                       // Suppression window for same-type unacknowledged alerts
	CrawlFailureThreshold float64       `mapstructure:"crawl_failure_threshold" yaml:"crawl_failure_threshold"` // Failure rate (%) that raises a crawl_failure alert
	FailureRateHigh       float64       `mapstructure:"failure_rate_high" yaml:"failure_rate_high"`             // Failure rate (%) escalating to high severity
	FailureRateCritical   float64       `mapstructure:"failure_rate_critical" yaml:"failure_rate_critical"`     // Failure rate (%) escalating to critical severity
	ResponseTimeThreshold time.Duration `mapstructure:"response_time_threshold" yaml:"response_time_threshold"` // Average duration that raises a response_time alert
	ResponseTimeHigh      time.Duration `mapstructure:"response_time_high" yaml:"response_time_high"`           // Average duration escalating to high severity
}

// NotificationConfig holds the notification channel settings.
type NotificationConfig struct {
	EmailEnabled   bool     `mapstructure:"email_enabled" yaml:"email_enabled"`
	SMTPAddr       string   `mapstructure:"smtp_addr" yaml:"smtp_addr"` // host:port of the mail relay
	SMTPFrom       string   `mapstructure:"smtp_from" yaml:"smtp_from"`
	Recipients     []string `mapstructure:"recipients" yaml:"recipients"`
	WebhookEnabled bool     `mapstructure:"webhook_enabled" yaml:"webhook_enabled"`
	WebhookURL     string   `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// ReportingConfig holds the search-console reporting API settings.
// The collaborator reports itself unconfigured when URL or key is empty.
type ReportingConfig struct {
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// CacheConfig holds the dashboard snapshot cache settings.
// An empty redis_addr selects the in-process cache.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Config holds the complete SEO monitor configuration.
type Config struct {
	// Site and crawl parameters
	SiteBaseURL    string        `mapstructure:"site_base_url" yaml:"site_base_url"`     // Root of the monitored site (e.g. https://www.example.com)
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Minimum delay between crawls of the same host
	RenderTimeout  time.Duration `mapstructure:"render_timeout" yaml:"render_timeout"`   // Headless browser page load timeout

	Pages []PageConfig `mapstructure:"pages" yaml:"pages"` // Monitored page set

	Scheduler     SchedulerConfig    `mapstructure:"scheduler" yaml:"scheduler"`
	Alerting      AlertingConfig     `mapstructure:"alerting" yaml:"alerting"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Reporting     ReportingConfig    `mapstructure:"reporting" yaml:"reporting"`
	Cache         CacheConfig        `mapstructure:"cache" yaml:"cache"`

	// Persistence and surfaces
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // SQLite archive path; empty disables archiving
	ListenAddr   string `mapstructure:"listen_addr" yaml:"listen_addr"`     // Admin API listen address

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values.
// Alert breakpoints follow the production defaults: a failure rate at or
// above 5% alerts at medium, 10% at high, 20% at critical; average crawl
// durations above 200ms alert at medium and above 1s at high.
func DefaultConfig() *Config {
	return &Config{
		UserAgent:      "SEOWatch/1.0",
		RequestTimeout: 30 * time.Second,
		RequestDelay:   1 * time.Second,
		RenderTimeout:  60 * time.Second,
		Scheduler: SchedulerConfig{
			TickInterval: 1 * time.Minute,
			HistoryLimit: 1000,
		},
		Alerting: AlertingConfig{
			TickInterval:          5 * time.Minute,
			HistoryLimit:          100,
			DedupWindow:           1 * time.Hour,
			CrawlFailureThreshold: 5,
			FailureRateHigh:       10,
			FailureRateCritical:   20,
			ResponseTimeThreshold: 200 * time.Millisecond,
			ResponseTimeHigh:      1 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
		DatabasePath: "./seowatch.db",
		ListenAddr:   ":8090",
		LogLevel:     "info",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SiteBaseURL == "" {
		return ErrMissingBaseURL
	}
	if len(c.Pages) == 0 {
		return ErrNoPages
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Scheduler.TickInterval <= 0 || c.Alerting.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if c.Scheduler.HistoryLimit <= 0 || c.Alerting.HistoryLimit <= 0 {
		return ErrInvalidHistoryLimit
	}
	if c.Alerting.CrawlFailureThreshold < 0 || c.Alerting.ResponseTimeThreshold < 0 {
		return ErrInvalidThreshold
	}

	// Enforce a minimum crawl delay so the monitor never hammers the site
	if c.RequestDelay < 100*time.Millisecond {
		c.RequestDelay = 100 * time.Millisecond
	}

	for i := range c.Pages {
		p := &c.Pages[i]
		if p.Key == "" {
			return fmt.Errorf("page %d: key cannot be empty", i)
		}
		if len(p.Paths) == 0 {
			return fmt.Errorf("page %q: %w", p.Key, ErrMissingPagePath)
		}
		if p.Frequency == "" {
			p.Frequency = "daily"
		}
		if !validFrequencies[p.Frequency] {
			return fmt.Errorf("page %q: %w (got %q)", p.Key, ErrInvalidFrequency, p.Frequency)
		}
	}

	return nil
}
