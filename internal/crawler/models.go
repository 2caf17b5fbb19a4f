package crawler

import (
	"time"

	"github.com/avelane/seowatch/internal/parser"
)

// CrawlStatus classifies the outcome of a crawl.
type CrawlStatus string

const (
	// StatusSuccess means the page was fetched and scored
	StatusSuccess CrawlStatus = "success"
	// StatusError means the fetch or analysis failed
	StatusError CrawlStatus = "error"
	// StatusTimeout means the fetch exceeded the configured deadline
	StatusTimeout CrawlStatus = "timeout"
)

// Request identifies a page to crawl.
type Request struct {
	URL    string
	Render bool // Fetch through the headless browser
}

// Result is the outcome of a single crawl.
type Result struct {
	Status       CrawlStatus
	Score        float64         // SEO score 0-100, meaningful only on success
	Diagnostics  []string        // Failed checks, human readable
	Signals      *parser.Signals // Extracted signals, nil on fetch failure
	StatusCode   int
	Duration     time.Duration
	ErrorDetails string // Populated when Status != success
}

// FetchResult is the raw output of a page fetcher.
type FetchResult struct {
	StatusCode   int
	Body         []byte
	FinalURL     string // After following redirects
	ContentType  string
	TTFB         time.Duration
	DownloadTime time.Duration
}
