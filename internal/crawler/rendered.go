package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderedFetcher fetches pages through a headless browser so that
// client-rendered SEO signals (injected meta tags, hero content) are
// visible to the analyzer.
type RenderedFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// NewRenderedFetcher creates a fetcher backed by a shared headless
// browser allocator. Call Close to release the browser.
func NewRenderedFetcher(userAgent string, timeout time.Duration) *RenderedFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &RenderedFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
	}
}

// Fetch navigates to the URL, waits for the document to settle and
// returns the rendered HTML. The HTTP status is not observable through
// the rendering path; a completed navigation is treated as 200.
func (f *RenderedFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, f.timeout)
	defer cancel()

	// Honor cancellation of the caller's context as well
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-taskCtx.Done():
		}
	}()

	var renderedHTML string
	startTime := time.Now()

	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &renderedHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("rendered fetch failed: %w", err)
	}

	return &FetchResult{
		StatusCode:   200,
		Body:         []byte(renderedHTML),
		FinalURL:     url,
		ContentType:  "text/html",
		DownloadTime: time.Since(startTime),
	}, nil
}

// Close releases the browser allocator.
func (f *RenderedFetcher) Close() {
	f.allocCancel()
}
