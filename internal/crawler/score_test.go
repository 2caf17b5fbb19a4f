package crawler

import (
	"strings"
	"testing"

	"github.com/avelane/seowatch/internal/parser"
)

func perfectSignals() *parser.Signals {
	return &parser.Signals{
		Title:           "Memory Films — Turn Your Archives Into Cinema",
		MetaDescription: strings.Repeat("a", 120),
		CanonicalURL:    "https://www.example.com/en/",
		Lang:            "en",
		OGTitle:         "Memory Films",
		OGDescription:   "Your memories on film.",
		OGImage:         "https://www.example.com/og.jpg",
		H1Count:         1,
		FirstH1:         "Your memories, on film",
		ImageCount:      4,
		WordCount:       600,
	}
}

func TestScorePerfectPage(t *testing.T) {
	score, diagnostics := ScorePage(perfectSignals())
	if score != 100 {
		t.Errorf("Expected score 100, got %v (diagnostics: %v)", score, diagnostics)
	}
	if len(diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diagnostics)
	}
}

func TestScorePenalties(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*parser.Signals)
		wantScore float64
		wantDiag  string
	}{
		{
			name:      "missing title",
			mutate:    func(s *parser.Signals) { s.Title = "" },
			wantScore: 85,
			wantDiag:  "missing <title>",
		},
		{
			name:      "title too long",
			mutate:    func(s *parser.Signals) { s.Title = strings.Repeat("x", 80) },
			wantScore: 95,
			wantDiag:  "title length",
		},
		{
			name:      "missing meta description",
			mutate:    func(s *parser.Signals) { s.MetaDescription = "" },
			wantScore: 85,
			wantDiag:  "missing meta description",
		},
		{
			name:      "no h1",
			mutate:    func(s *parser.Signals) { s.H1Count = 0 },
			wantScore: 90,
			wantDiag:  "no <h1>",
		},
		{
			name:      "multiple h1",
			mutate:    func(s *parser.Signals) { s.H1Count = 3 },
			wantScore: 95,
			wantDiag:  "3 <h1> headings",
		},
		{
			name:      "missing canonical",
			mutate:    func(s *parser.Signals) { s.CanonicalURL = "" },
			wantScore: 90,
			wantDiag:  "missing canonical",
		},
		{
			name:      "missing alt text",
			mutate:    func(s *parser.Signals) { s.ImagesMissingAlt = 2 },
			wantScore: 95,
			wantDiag:  "2 of 4 images missing alt text",
		},
		{
			name:      "thin content",
			mutate:    func(s *parser.Signals) { s.WordCount = 40 },
			wantScore: 90,
			wantDiag:  "thin content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := perfectSignals()
			tt.mutate(signals)

			score, diagnostics := ScorePage(signals)
			if score != tt.wantScore {
				t.Errorf("ScorePage() score = %v, want %v", score, tt.wantScore)
			}

			found := false
			for _, d := range diagnostics {
				if strings.Contains(d, tt.wantDiag) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected diagnostic containing %q, got %v", tt.wantDiag, diagnostics)
			}
		})
	}
}

func TestScoreNeverNegative(t *testing.T) {
	score, _ := ScorePage(&parser.Signals{})
	if score < 0 {
		t.Errorf("Expected non-negative score, got %v", score)
	}
}
