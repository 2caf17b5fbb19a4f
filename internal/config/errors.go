package config

import "errors"

var (
	// ErrMissingBaseURL is returned when no site base URL is configured
	ErrMissingBaseURL = errors.New("site_base_url cannot be empty")
	// ErrNoPages is returned when the monitored page set is empty
	ErrNoPages = errors.New("no pages configured for monitoring")
	// ErrInvalidTimeout is returned when request_timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidTickInterval is returned when a tick interval is not greater than 0
	ErrInvalidTickInterval = errors.New("tick interval must be greater than 0")
	// ErrInvalidHistoryLimit is returned when a history cap is not greater than 0
	ErrInvalidHistoryLimit = errors.New("history limit must be greater than 0")
	// ErrInvalidThreshold is returned when an alert threshold is negative
	ErrInvalidThreshold = errors.New("alert thresholds must not be negative")
	// ErrInvalidFrequency is returned when a page declares an unknown crawl frequency
	ErrInvalidFrequency = errors.New("frequency must be one of: hourly, daily, weekly, monthly")
	// ErrMissingPagePath is returned when a page declares no locale paths
	ErrMissingPagePath = errors.New("page must declare at least one locale path")
)
