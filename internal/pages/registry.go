// Package pages maintains the registry of monitored site pages.
// Every locale variant of a configured page becomes an independently
// scheduled entry identified by "<key>:<locale>".
package pages

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/avelane/seowatch/internal/config"
)

// ErrUnknownPage is returned when a page id is not present in the registry.
var ErrUnknownPage = errors.New("unknown page id")

// Page is a single routable location of the site with its SEO settings.
type Page struct {
	ID               string // "<key>:<locale>"
	Key              string
	Locale           string
	URL              string // Absolute canonical URL
	Frequency        string
	CrawlEnabled     bool
	ReportingEnabled bool
	Render           bool // Fetch through the headless browser
}

// Registry resolves page ids to their canonical URLs and SEO settings.
// The page set is fixed at construction; schedules reference it read-only.
type Registry struct {
	byID  map[string]Page
	order []string
}

// NewRegistry builds the registry from the configured page set.
func NewRegistry(baseURL string, pageConfigs []config.PageConfig) (*Registry, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site base URL: %w", err)
	}

	r := &Registry{byID: make(map[string]Page)}
	for _, pc := range pageConfigs {
		locales := make([]string, 0, len(pc.Paths))
		for locale := range pc.Paths {
			locales = append(locales, locale)
		}
		sort.Strings(locales)

		for _, locale := range locales {
			ref, err := url.Parse(pc.Paths[locale])
			if err != nil {
				return nil, fmt.Errorf("page %q locale %q: invalid path: %w", pc.Key, locale, err)
			}

			id := pc.Key + ":" + locale
			if _, exists := r.byID[id]; exists {
				return nil, fmt.Errorf("duplicate page id %q", id)
			}

			r.byID[id] = Page{
				ID:               id,
				Key:              pc.Key,
				Locale:           locale,
				URL:              base.ResolveReference(ref).String(),
				Frequency:        pc.Frequency,
				CrawlEnabled:     !pc.CrawlDisabled,
				ReportingEnabled: !pc.ReportingDisabled,
				Render:           pc.Render,
			}
			r.order = append(r.order, id)
		}
	}

	return r, nil
}

// Get returns the page for the given id.
func (r *Registry) Get(pageID string) (Page, error) {
	page, ok := r.byID[pageID]
	if !ok {
		return Page{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	return page, nil
}

// All returns every registered page in configuration order.
func (r *Registry) All() []Page {
	result := make([]Page, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.byID[id])
	}
	return result
}

// NeedsRendering reports whether any page requires the headless
// browser fetcher.
func (r *Registry) NeedsRendering() bool {
	for _, page := range r.byID {
		if page.Render {
			return true
		}
	}
	return false
}
