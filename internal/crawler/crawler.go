// Package crawler implements the synthetic SEO crawl of site pages.
// A crawl fetches the page (plain HTTP or headless-rendered), extracts
// SEO signals and produces a quality score with diagnostics.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/avelane/seowatch/internal/parser"
)

// Fetcher retrieves the raw content of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Crawler runs SEO crawls. Consumed by the scheduler as an opaque
// operation with a result object and a failure mode.
type Crawler interface {
	Crawl(ctx context.Context, req Request) (*Result, error)
}

// SEOCrawler implements Crawler with a rate-limited fetch followed by
// signal extraction and scoring.
type SEOCrawler struct {
	httpFetcher     Fetcher
	renderedFetcher Fetcher // nil when rendering is unavailable
	rateLimiter     *RateLimiter
}

// NewSEOCrawler creates a crawler. renderedFetcher may be nil; pages
// requesting rendering then fall back to the plain HTTP fetcher.
func NewSEOCrawler(httpFetcher, renderedFetcher Fetcher, rateLimiter *RateLimiter) *SEOCrawler {
	return &SEOCrawler{
		httpFetcher:     httpFetcher,
		renderedFetcher: renderedFetcher,
		rateLimiter:     rateLimiter,
	}
}

// Crawl fetches and scores a single page. Fetch failures are reported
// through the Result status, not the error return; the error return is
// reserved for failures of the crawl machinery itself.
func (c *SEOCrawler) Crawl(ctx context.Context, req Request) (*Result, error) {
	if err := c.rateLimiter.Wait(ctx, req.URL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fetcher := c.httpFetcher
	if req.Render && c.renderedFetcher != nil {
		fetcher = c.renderedFetcher
	}

	startTime := time.Now()
	resp, err := fetcher.Fetch(ctx, req.URL)
	duration := time.Since(startTime)

	if err != nil {
		status := StatusError
		if isTimeout(err) {
			status = StatusTimeout
		}
		slog.Warn("Crawl fetch failed", "url", req.URL, "status", status, "error", err)
		return &Result{
			Status:       status,
			Duration:     duration,
			ErrorDetails: err.Error(),
		}, nil
	}

	if resp.StatusCode >= 400 {
		return &Result{
			Status:       StatusError,
			StatusCode:   resp.StatusCode,
			Duration:     duration,
			ErrorDetails: fmt.Sprintf("unexpected status code %d", resp.StatusCode),
		}, nil
	}

	seoParser, err := parser.NewSEOParser(resp.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parser setup: %w", err)
	}

	signals, err := seoParser.Parse(resp.Body)
	if err != nil {
		return &Result{
			Status:       StatusError,
			StatusCode:   resp.StatusCode,
			Duration:     duration,
			ErrorDetails: fmt.Sprintf("html parse failed: %v", err),
		}, nil
	}

	score, diagnostics := ScorePage(signals)
	slog.Debug("Crawl completed", "url", req.URL, "score", score, "diagnostics", len(diagnostics))

	return &Result{
		Status:      StatusSuccess,
		Score:       score,
		Diagnostics: diagnostics,
		Signals:     signals,
		StatusCode:  resp.StatusCode,
		Duration:    duration,
	}, nil
}

// isTimeout reports whether err stems from a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
