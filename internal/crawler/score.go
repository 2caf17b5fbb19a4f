package crawler

import (
	"fmt"

	"github.com/avelane/seowatch/internal/parser"
)

// Scoring weights. Each failed check deducts from a perfect 100.
const (
	penaltyMissingTitle    = 15
	penaltyTitleLength     = 5
	penaltyMissingMetaDesc = 15
	penaltyMetaDescLength  = 5
	penaltyNoH1            = 10
	penaltyMultipleH1      = 5
	penaltyMissingCanon    = 10
	penaltyMissingLang     = 5
	penaltyMissingOG       = 5
	penaltyMissingAlts     = 5
	penaltyThinContent     = 10

	minTitleLen    = 10
	maxTitleLen    = 70
	minMetaDescLen = 50
	maxMetaDescLen = 160
	minWordCount   = 150
)

// ScorePage computes the SEO score (0-100) for a set of extracted
// signals and returns the diagnostics for every failed check.
func ScorePage(s *parser.Signals) (float64, []string) {
	score := 100.0
	var diagnostics []string

	deduct := func(points int, msg string) {
		score -= float64(points)
		diagnostics = append(diagnostics, msg)
	}

	if s.Title == "" {
		deduct(penaltyMissingTitle, "missing <title>")
	} else if len(s.Title) < minTitleLen || len(s.Title) > maxTitleLen {
		deduct(penaltyTitleLength, fmt.Sprintf("title length %d outside %d-%d", len(s.Title), minTitleLen, maxTitleLen))
	}

	if s.MetaDescription == "" {
		deduct(penaltyMissingMetaDesc, "missing meta description")
	} else if len(s.MetaDescription) < minMetaDescLen || len(s.MetaDescription) > maxMetaDescLen {
		deduct(penaltyMetaDescLength, fmt.Sprintf("meta description length %d outside %d-%d", len(s.MetaDescription), minMetaDescLen, maxMetaDescLen))
	}

	switch {
	case s.H1Count == 0:
		deduct(penaltyNoH1, "no <h1> heading")
	case s.H1Count > 1:
		deduct(penaltyMultipleH1, fmt.Sprintf("%d <h1> headings, expected exactly one", s.H1Count))
	}

	if s.CanonicalURL == "" {
		deduct(penaltyMissingCanon, "missing canonical link")
	}

	if s.Lang == "" {
		deduct(penaltyMissingLang, "missing lang attribute on <html>")
	}

	if s.OGTitle == "" || s.OGDescription == "" || s.OGImage == "" {
		deduct(penaltyMissingOG, "incomplete Open Graph tags")
	}

	if s.ImagesMissingAlt > 0 {
		deduct(penaltyMissingAlts, fmt.Sprintf("%d of %d images missing alt text", s.ImagesMissingAlt, s.ImageCount))
	}

	if s.WordCount < minWordCount {
		deduct(penaltyThinContent, fmt.Sprintf("thin content: %d words, expected at least %d", s.WordCount, minWordCount))
	}

	if score < 0 {
		score = 0
	}
	return score, diagnostics
}
