package pages

import (
	"errors"
	"testing"

	"github.com/avelane/seowatch/internal/config"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry("https://www.example.com", []config.PageConfig{
		{Key: "home", Paths: map[string]string{"en": "/en/", "fr": "/fr/"}, Frequency: "daily"},
		{Key: "gallery", Paths: map[string]string{"fr": "/fr/galerie"}, Frequency: "weekly", ReportingDisabled: true},
	})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(all))
	}

	// Locale variants are ordered deterministically within a page
	if all[0].ID != "home:en" || all[1].ID != "home:fr" || all[2].ID != "gallery:fr" {
		t.Errorf("Unexpected page order: %v, %v, %v", all[0].ID, all[1].ID, all[2].ID)
	}

	home, err := reg.Get("home:fr")
	if err != nil {
		t.Fatalf("Get(home:fr) failed: %v", err)
	}
	if home.URL != "https://www.example.com/fr/" {
		t.Errorf("Expected resolved URL https://www.example.com/fr/, got %s", home.URL)
	}
	if !home.CrawlEnabled || !home.ReportingEnabled {
		t.Errorf("Expected crawl and reporting enabled by default")
	}

	gallery, err := reg.Get("gallery:fr")
	if err != nil {
		t.Fatalf("Get(gallery:fr) failed: %v", err)
	}
	if gallery.ReportingEnabled {
		t.Errorf("Expected reporting disabled for gallery")
	}
	if gallery.URL != "https://www.example.com/fr/galerie" {
		t.Errorf("Unexpected gallery URL: %s", gallery.URL)
	}
}

func TestRegistryUnknownPage(t *testing.T) {
	reg, err := NewRegistry("https://www.example.com", []config.PageConfig{
		{Key: "home", Paths: map[string]string{"en": "/en/"}, Frequency: "daily"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	if _, err := reg.Get("missing:en"); !errors.Is(err, ErrUnknownPage) {
		t.Errorf("Expected ErrUnknownPage, got %v", err)
	}
}

func TestRegistryNeedsRendering(t *testing.T) {
	reg, err := NewRegistry("https://www.example.com", []config.PageConfig{
		{Key: "home", Paths: map[string]string{"en": "/en/"}, Frequency: "daily"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}
	if reg.NeedsRendering() {
		t.Errorf("Expected no rendering for plain pages")
	}

	reg, err = NewRegistry("https://www.example.com", []config.PageConfig{
		{Key: "gallery", Paths: map[string]string{"fr": "/fr/galerie"}, Frequency: "daily", Render: true},
	})
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}
	if !reg.NeedsRendering() {
		t.Errorf("Expected rendering required for render-flagged page")
	}
}

func TestRegistryDuplicatePage(t *testing.T) {
	_, err := NewRegistry("https://www.example.com", []config.PageConfig{
		{Key: "home", Paths: map[string]string{"en": "/en/"}, Frequency: "daily"},
		{Key: "home", Paths: map[string]string{"en": "/en/home"}, Frequency: "daily"},
	})
	if err == nil {
		t.Errorf("Expected error for duplicate page id, got nil")
	}
}
